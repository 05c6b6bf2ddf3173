package rpcclient

import (
	"github.com/dfinet/dfitx/infrastructure/logger"
)

var log = logger.RegisterSubSystem("RPCC")
