package elections

import (
	"github.com/orvnet/orvd/infrastructure/logger"
	"github.com/orvnet/orvd/util/panics"
)

var log = logger.RegisterSubSystem("ELEC")
var spawn = panics.GoroutineWrapperFunc(log)
