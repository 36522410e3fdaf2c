package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	envLoggingLevel  = "CORE_CHAINCODE_LOGGING_LEVEL"
	envLoggingFormat = "CORE_CHAINCODE_LOGGING_FORMAT"

	defaultLevel = logrus.WarnLevel
)

var (
	lg   *logrus.Entry
	once sync.Once
)

// Logger returns the logger for chaincode
func Logger() *logrus.Entry {
	once.Do(func() {
		lg = newLogger(os.Getenv(envLoggingLevel), os.Getenv(envLoggingFormat))
	})
	return lg
}

func newLogger(levelStr string, formatStr string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = defaultLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(formatStr) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000 MST",
		})
	}

	return l.WithField("module", "chaincode")
}
