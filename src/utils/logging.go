package utils

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	logger "github.com/sirupsen/logrus"
)

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"text"` // text or json
}

func GetLogConfig() LogConfig {
	var config LogConfig
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// SetupLogger configures the standard logrus logger. Unknown levels fall
// back to debug.
func SetupLogger(cfg LogConfig) {
	ConfigureLogger(logger.StandardLogger(), cfg)
}

func ConfigureLogger(l *logger.Logger, cfg LogConfig) {
	level, err := logger.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logger.DebugLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logger.JSONFormatter{})
		return
	}
	l.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}
