package winservice

import (
	"github.com/orvnet/orvd/infrastructure/logger"
	"github.com/orvnet/orvd/util/panics"
)

var log = logger.RegisterSubSystem("SRVC")
var spawn = panics.GoroutineWrapperFunc(log)
