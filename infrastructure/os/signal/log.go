package signal

import (
	"github.com/orvnet/orvd/infrastructure/logger"
	"github.com/orvnet/orvd/util/panics"
)

var log = logger.RegisterSubSystem("SGNL")
var spawn = panics.GoroutineWrapperFunc(log)
