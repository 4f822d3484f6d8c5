package config

import (
	"os"

	"github.com/charmbracelet/log"
)

// LogLevelEnv selects the log level of every command.
const LogLevelEnv = "HARDISKS_LOG_LEVEL"

// NewLogger returns the stderr logger shared by the commands. The level comes
// from HARDISKS_LOG_LEVEL and defaults to info.
func NewLogger(prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})

	level := log.InfoLevel
	if value := GetEnv(LogLevelEnv, ""); value != "" {
		parsed, err := log.ParseLevel(value)
		if err != nil {
			logger.Warn("ignoring invalid log level", "env", LogLevelEnv, "value", value)
		} else {
			level = parsed
		}
	}
	logger.SetLevel(level)
	return logger
}
