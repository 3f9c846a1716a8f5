package config

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// for Log

func initLogrus(_ *viper.Viper) {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		TimestampFormat: time.DateTime,
	})
	if Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// initLog4 opens a JSON logger appending to path. When the file can't be
// opened the logger discards its output instead of failing the process.
func initLog4(path string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.DateTime,
	})
	tmpLog, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logrus.WithError(err).Warnf("tracuni couldn't open %s, journal disabled", path)
		logger.SetOutput(io.Discard)
		return logger
	}
	logger.SetOutput(tmpLog)
	return logger
}

const (
	PathJournal = "/tmp/tracuni_journal.log.json"
)

var (
	Log4Journal = initLog4(PathJournal)
)

func init() {
	initLogrus(nil)

	Log4Journal.SetLevel(logrus.DebugLevel)
}
