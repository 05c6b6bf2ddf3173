package walletstore

import (
	"github.com/dfinet/dfitx/infrastructure/logger"
)

var log = logger.RegisterSubSystem("WSTR")
