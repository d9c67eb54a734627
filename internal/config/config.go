package config

type Config interface {
	EnvConfig
	OAuthConfig
	ClientConfig
	ProviderConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
}

type mainConfig struct {
	EnvVars
	OAuth
	Client
	Provider
}

func New() Config {
	return mainConfig{}
}
