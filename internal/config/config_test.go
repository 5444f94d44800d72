package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "humanizapp_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017/testdb", cfg.MongoDB.URI)
	require.Equal(t, "humanizapp_test", cfg.MongoDB.Database)
	require.Equal(t, "localhost:6380", cfg.Redis.Addr())
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 60*time.Minute, cfg.JWT.AccessTokenTTL)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("REDIS_HOST", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Empty(t, cfg.MongoDB.URI, "mongo is optional")
	require.Empty(t, cfg.Redis.Addr())
	require.Equal(t, "3000", cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Client.SessionStore)
	require.Equal(t, 15*time.Second, cfg.Client.Timeout)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://env.example")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("api-base-url", "", "backend URL")
	fs.String("session-store", "", "session backend")
	require.NoError(t, fs.Parse([]string{"--api-base-url=http://flag.example/", "--session-store=MEMORY"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	require.Equal(t, "http://flag.example", cfg.Client.APIBaseURL)
	require.Equal(t, "memory", cfg.Client.SessionStore)
}

func TestOIDCIssuer(t *testing.T) {
	require.Equal(t, "", OIDCConfig{}.Issuer())
	require.Equal(t, "https://id.example", OIDCConfig{URL: "https://id.example"}.Issuer())
	require.Equal(t, "https://id.example/realms/humaniza", OIDCConfig{URL: "https://id.example/", Realm: "humaniza"}.Issuer())
}
