package config

import "go.uber.org/zap/zapcore"

// LogLevel resolves the -v/-q counters into a zap level. Verbosity dominates:
// any -v selects debug regardless of -q. A single -q drops to warnings, two or
// more to errors only. Neither flag selects the informational default.
func LogLevel(verbose, quiet int) zapcore.Level {
	switch {
	case verbose > 0:
		return zapcore.DebugLevel
	case quiet >= 2:
		return zapcore.ErrorLevel
	case quiet == 1:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
