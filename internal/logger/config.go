package logger

import (
	"os"
	"strings"
)

const (
	// EnvDebug switches on debug output when set to a truthy value
	EnvDebug = "ISSYOURS_DEBUG"
)

// ConfigFromEnv reads logger settings from the environment.
// LOG_LEVEL takes precedence over ISSYOURS_DEBUG.
func ConfigFromEnv() *Config {
	config := &Config{
		Level:  "info",
		Format: "text",
		Output: os.Stderr,
	}

	if isTrue(os.Getenv(EnvDebug)) {
		config.Level = "debug"
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Level = strings.ToLower(level)
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Format = strings.ToLower(format)
	}

	return config
}

func isTrue(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
