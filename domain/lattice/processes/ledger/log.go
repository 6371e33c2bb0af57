package ledger

import (
	"github.com/orvnet/orvd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("LDGR")
