package protocol

import (
	"github.com/orvnet/orvd/infrastructure/logger"
	"github.com/orvnet/orvd/util/panics"
)

var log = logger.RegisterSubSystem("PROT")
var spawn = panics.GoroutineWrapperFunc(log)
