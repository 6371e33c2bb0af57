package flowcontext

import (
	"github.com/orvnet/orvd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("PROT")
