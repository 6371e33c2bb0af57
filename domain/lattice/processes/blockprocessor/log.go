package blockprocessor

import (
	"github.com/orvnet/orvd/infrastructure/logger"
	"github.com/orvnet/orvd/util/panics"
)

var log = logger.RegisterSubSystem("BLPR")
var spawn = panics.GoroutineWrapperFunc(log)
