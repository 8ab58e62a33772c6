package config

import "time"

type SecurityConfig interface {
	GetDeviceSecret() string
	GetRequestTimeout() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetDeviceSecret returns the passphrase used to derive the at-rest
// encryption key for the durable state store. An empty secret disables
// encryption (dev mode).
func (Security) GetDeviceSecret() string {
	return GetEnv("TEMPORA_DEVICE_SECRET", "")
}

func (Security) GetRequestTimeout() time.Duration {
	return 30 * time.Second
}
