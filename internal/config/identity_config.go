package config

import "strings"

type IdentityConfig interface {
	GetIssuerURL() string
	GetClientID() string
	GetScopes() []string
}

type Identity struct{}

var _ IdentityConfig = Identity{}

// GetIssuerURL returns the OIDC issuer used for discovery
// (/.well-known/openid-configuration).
func (Identity) GetIssuerURL() string {
	return GetEnv("TEMPORA_ISSUER_URL", "https://id.tempora.io")
}

func (Identity) GetClientID() string {
	return GetEnv("TEMPORA_CLIENT_ID", "tempora-desktop")
}

func (Identity) GetScopes() []string {
	scopes := GetEnv("TEMPORA_SCOPES", "openid profile email offline_access")
	return strings.Fields(scopes)
}
