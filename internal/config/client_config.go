package config

import (
	"os"
	"path/filepath"
)

// ClientConfig is read by the command line client
type ClientConfig interface {
	GetProviderURL() string
	GetClientID() string
	GetClientSecret() string
	GetCookieFile() string
}

type Client struct{}

var _ ClientConfig = Client{}

func (Client) GetProviderURL() string {
	return GetEnv("AUTH_PROVIDER_URL", "http://localhost:8080")
}

func (Client) GetClientID() string {
	return GetEnv("AUTH_CLIENT_ID", "cli")
}

func (Client) GetClientSecret() string {
	return GetEnv("AUTH_CLIENT_SECRET", "")
}

func (Client) GetCookieFile() string {
	if f := os.Getenv("AUTH_COOKIE_FILE"); f != "" {
		return f
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".authctl-cookies.json"
	}
	return filepath.Join(dir, "authctl", "cookies.json")
}
