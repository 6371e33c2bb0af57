package onlineweight

import (
	"github.com/orvnet/orvd/infrastructure/logger"
	"github.com/orvnet/orvd/util/panics"
)

var log = logger.RegisterSubSystem("ONLW")
var spawn = panics.GoroutineWrapperFunc(log)
