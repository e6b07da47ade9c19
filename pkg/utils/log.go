package utils

import (
	"flag"
	"log/slog"
	"os"
	"strings"
)

var (
	handlerTypeFlag = flag.String("log_handler_type", "json", "Log handler type: json/text")
	logLevelFlag    = flag.String("log_level", "info", "Log level: debug/info/warn/error")
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// initLoggingWith configures the default slog logger with the given arguments.
func initLoggingWith(handlerType, logLevel string) {
	slogLevel, knownLevel := logLevels[logLevel]
	if !knownLevel {
		RaiseInvariant("log", "unsupported_log_level", "Got an unsupported log level.",
			"logLevel", logLevel)
		slogLevel = slog.LevelInfo
	}

	handlerOptions := slog.HandlerOptions{Level: slogLevel}
	var handler slog.Handler
	switch handlerType {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, &handlerOptions)
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &handlerOptions)
	default:
		RaiseInvariant("log", "unsupported_handler_type", "Got an unsupported handler type.",
			"handlerType", handlerType)
		handler = slog.NewJSONHandler(os.Stdout, &handlerOptions)
	}

	// `SetDefault` happens atomically and doesn't panic when called in multiple goroutines.
	slog.SetDefault(slog.New(handler))
	slog.Debug("Log handler configured successfully.", "type", handlerType, "logLevel", logLevel)
}

// InitLogging configures the default slog logger. Note that this method must be called after flag.Parse().
func InitLogging() {
	initLoggingWith(strings.ToLower(*handlerTypeFlag), strings.ToLower(*logLevelFlag))
}
