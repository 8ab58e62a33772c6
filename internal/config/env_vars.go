package config

import (
	"os"
	"path/filepath"
)

const (
	apiBaseURLVar = "TEMPORA_API_URL"
	appNameVar    = "TEMPORA_APP_NAME"
	dataDirVar    = "TEMPORA_DATA_DIR"
	logLevelVar   = "TEMPORA_LOG_LEVEL"
)

type EnvConfig interface {
	GetAPIBaseURL() string
	GetAppName() string
	GetDataDir() string
	GetLogLevel() string
	GetEnv() string
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

// GetAPIBaseURL returns the base URL of the Tempora REST API
// (e.g., "https://api.tempora.io"). All resource endpoints are
// resolved relative to it.
func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "https://api.tempora.io")
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Tempora")
}

// GetDataDir returns the directory holding the durable client state
// (cached session id, bootstrap marker, remembered identifier).
func (EnvVars) GetDataDir() string {
	if dir := os.Getenv(dataDirVar); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".tempora")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
