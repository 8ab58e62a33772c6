package config

type Config interface {
	EnvConfig
	IdentityConfig
	SecurityConfig
}

type mainConfig struct {
	EnvVars
	Identity
	Security
}

func New() Config {
	return mainConfig{}
}
