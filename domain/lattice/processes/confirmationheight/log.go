package confirmationheight

import (
	"github.com/orvnet/orvd/infrastructure/logger"
	"github.com/orvnet/orvd/util/panics"
)

var log = logger.RegisterSubSystem("CONF")
var spawn = panics.GoroutineWrapperFunc(log)
