package config

// ProviderConfig controls what the development provider seeds at startup.
type ProviderConfig interface {
	GetSystemAdminUser() string
	GetSystemAdminPassword() string
	GetSeedClientID() string
}

type Provider struct{}

var _ ProviderConfig = Provider{}

func (Provider) GetSystemAdminUser() string {
	return GetEnv("SYSTEM_ADMIN_USER", "admin")
}

// GetSystemAdminPassword returns the seeded admin password. Empty means one
// is generated and printed on first start.
func (Provider) GetSystemAdminPassword() string {
	return GetEnv("SYSTEM_ADMIN_PASSWORD", "")
}

// GetSeedClientID is the public client registered for the CLI.
func (Provider) GetSeedClientID() string {
	return GetEnv("SEED_CLIENT_ID", "cli")
}
