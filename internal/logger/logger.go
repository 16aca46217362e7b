package logger

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

type Config struct {
	Level string
}

func PrepareLogger(config Config) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)

	if config.Level == "" {
		config.Level = "INFO"
	}
	level, err := log.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", config.Level, err)
	}
	log.SetLevel(level)
	return nil
}
