package notifications

import (
	"github.com/orvnet/orvd/infrastructure/logger"
	"github.com/orvnet/orvd/util/panics"
)

var log = logger.RegisterSubSystem("NTFN")
var spawn = panics.GoroutineWrapperFunc(log)
