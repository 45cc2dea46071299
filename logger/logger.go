package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

const projectName = "onbeat"

var (
	once    sync.Once
	project *logrus.Logger
)

func base() *logrus.Logger {
	once.Do(func() {
		project = logrus.New()
		project.SetOutput(os.Stderr)
		project.SetLevel(logrus.InfoLevel)
		project.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	})
	return project
}

// GetProjectLogger returns the logger shared by every package of the project.
func GetProjectLogger() *logrus.Entry {
	return base().WithField("name", projectName)
}

// SetLevel changes the level of the project logger, e.g. "debug" or "warn".
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	base().SetLevel(lvl)
	return nil
}
