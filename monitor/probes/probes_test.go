package probes

import (
	"os"

	"github.com/hostpulse/hostpulse/share/logger"
)

var testLog = logger.NewLogger("probes", logger.LogOutput{File: os.Stdout}, logger.LogLevelDebug)
