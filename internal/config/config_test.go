package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServer_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("IDP_BASE_URL", "")
	t.Setenv("AUTH_MODE", "")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, AuthModeDev, cfg.ResolvedAuthMode())
	assert.False(t, cfg.TrustClientStatus)
	assert.NoError(t, cfg.Validate())
}

func TestLoadServer_JWTModeInferred(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AUTH_MODE", "")
	t.Setenv("TRUST_CLIENT_STATUS", "true")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, AuthModeJWT, cfg.ResolvedAuthMode())
	assert.True(t, cfg.TrustClientStatus)
	assert.NoError(t, cfg.Validate())
}

func TestServerValidate(t *testing.T) {
	assert.Error(t, (&Server{AuthMode: "jwt"}).Validate())
	assert.Error(t, (&Server{AuthMode: "idp", IDPBaseURL: "http://idp"}).Validate())
	assert.Error(t, (&Server{AuthMode: "saml"}).Validate())
	assert.Error(t, (&Server{Env: "production"}).Validate())
}

func TestLoadClient(t *testing.T) {
	t.Setenv("HOUSEHOLD_ID", "h-1")
	t.Setenv("USER_ID", "u-1")
	t.Setenv("QUEUE_RETRY_DELAY", "500ms")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 30*time.Second, cfg.LeaseTTL)
	assert.NoError(t, cfg.Validate())

	cfg.MaxRetries = 0
	assert.Error(t, cfg.Validate())
}
