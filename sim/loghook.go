package sim

import (
	"log"
)

// A LogHook is a hook that is responsible for recording information from the
// simulation
type LogHook interface {
	Hook
}

// LogHookBase provides the common logic for all LogHooks
type LogHookBase struct {
	*log.Logger
}

// NewLogHookBase creates a LogHookBase that writes to the logger.
func NewLogHookBase(logger *log.Logger) LogHookBase {
	if logger == nil {
		log.Panic("log hook needs a logger")
	}

	return LogHookBase{Logger: logger}
}
