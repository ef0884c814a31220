package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type SetupParams struct {
	LogLevel      string
	LogFormatJSON bool
	Output        io.Writer // defaults to stdout
}

// Setup configures the standard logrus logger used across the service.
func Setup(params SetupParams) {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logrus.SetLevel(GetLevel(params.LogLevel))

	if params.Output != nil {
		logrus.SetOutput(params.Output)
		return
	}
	logrus.SetOutput(os.Stdout)
}

// GetLevel maps a level name to logrus; unknown names fall back to info.
func GetLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
