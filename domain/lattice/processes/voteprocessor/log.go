package voteprocessor

import (
	"github.com/orvnet/orvd/infrastructure/logger"
	"github.com/orvnet/orvd/util/panics"
)

var log = logger.RegisterSubSystem("VOTE")
var spawn = panics.GoroutineWrapperFunc(log)
