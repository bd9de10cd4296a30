package cli

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// newLogger creates the diagnostic logger. Verbose selects DebugLevel;
// otherwise LOG_LEVEL is honored and WarnLevel is the default, since
// progress is already shown on the console.
func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if verbose {
		log.SetLevel(logrus.DebugLevel)
		return log
	}

	level := logrus.WarnLevel
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		parsed, err := logrus.ParseLevel(env)
		if err != nil {
			log.WithField("LOG_LEVEL", env).Warn("Invalid log level, defaulting to warn")
		} else {
			level = parsed
		}
	}
	log.SetLevel(level)

	return log
}
