package txbuilder

import (
	"github.com/dfinet/dfitx/infrastructure/logger"
)

var log = logger.RegisterSubSystem("TXBL")
