package app

import (
	"github.com/orvnet/orvd/infrastructure/logger"
	"github.com/orvnet/orvd/util/panics"
)

var log = logger.RegisterSubSystem("ORVD")
var spawn = panics.GoroutineWrapperFunc(log)
