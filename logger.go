package main

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// log is the process-wide logger. Tests get the default text logger.
var log = logrus.New()

// InitLogger configures log from LOG_LEVEL (default "info") and LOG_FORMAT
// ("json" for production, anything else for colored text).
func InitLogger() {
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stdout)
}
