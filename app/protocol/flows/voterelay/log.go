package voterelay

import (
	"github.com/orvnet/orvd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("PROT")
