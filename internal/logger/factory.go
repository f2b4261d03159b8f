package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// Setup configures the global logger: debug mode logs everything with
// timestamps, otherwise only warnings and errors are shown.
// Loggers from New pick up the level set here, so call it first.
func Setup(debug bool) {
	log.SetOutput(os.Stderr)
	if debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
		return
	}
	log.SetLevel(log.WarnLevel)
	log.SetReportTimestamp(false)
}
