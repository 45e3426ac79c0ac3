package app

import (
	iauth "github.com/jcastel/authbase/internal/auth"
)

// TokenServiceConfig converts AuthConfig into the parameters expected by the token service.
func (c AuthConfig) TokenServiceConfig() iauth.TokenConfig {
	ttl := c.JWT.SessionTTL
	if ttl <= 0 {
		ttl = iauth.DefaultSessionTTL
	}

	return iauth.TokenConfig{
		Secret:     c.JWT.Secret,
		Issuer:     c.JWT.Issuer,
		SessionTTL: ttl,
	}
}

// CredentialServiceConfig converts AuthConfig into CredentialService parameters.
func (c AuthConfig) CredentialServiceConfig() iauth.CredentialConfig {
	return iauth.CredentialConfig{
		VerifyURL:        c.Links.VerifyURL,
		ResetURL:         c.Links.ResetURL,
		ReturnResetToken: c.Links.ReturnResetToken,
	}
}
