package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"themis/internal/app"
	"themis/internal/store"
)

func TestConfig_Defaults(t *testing.T) {
	cfg, err := app.NewConfig("")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8080", cfg.RelayURL)
	require.Equal(t, uint32(logrus.InfoLevel), cfg.LogLevel)
	require.Equal(t, store.DefaultCacheSize, cfg.CacheSize)
	require.Equal(t, ".themis", filepath.Base(cfg.Home))
	require.Equal(t, ":8080", cfg.Listen)
	require.Positive(t, cfg.Poll)
}

func TestConfig_FileAndEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), "themis.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
relay:
  url: http://relay.example:9000/
  poll: 50ms
log:
  level: debug
peers:
  cache:
    size: 8
argon2:
  time: 1
  memory: 1024
  threads: 1
`), 0o600))
	t.Setenv("THEMIS_LISTEN", ":9999")
	t.Setenv("THEMIS_RELAY_TIMEOUT", "3s")

	cfg, err := app.NewConfig(file)
	require.NoError(t, err)
	require.Equal(t, "http://relay.example:9000", cfg.RelayURL)
	require.Equal(t, 50*time.Millisecond, cfg.Poll)
	require.Equal(t, uint32(logrus.DebugLevel), cfg.LogLevel)
	require.Equal(t, 8, cfg.CacheSize)
	require.Equal(t, uint32(1024), cfg.Argon2.Memory)
	require.Equal(t, ":9999", cfg.Listen)
	require.Equal(t, 3*time.Second, cfg.RequestTimeout)
}

func TestConfig_Invalid(t *testing.T) {
	_, err := app.NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	for env, val := range map[string]string{
		"THEMIS_LOG_LEVEL":        "loud",
		"THEMIS_RELAY_POLL":       "soon",
		"THEMIS_PEERS_CACHE_SIZE": "0",
		"THEMIS_ARGON2_THREADS":   "0",
	} {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, val)
			_, err := app.NewConfig("")
			require.Error(t, err)
		})
	}
}

func TestNew_WiresServices(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	a, err := app.New("", func(c *app.Config) {
		c.Home = home
		c.Argon2.Time, c.Argon2.Memory, c.Argon2.Threads = 1, 1024, 1
	})
	require.NoError(t, err)
	require.DirExists(t, home)
	require.NotNil(t, a.Identity)
	require.NotNil(t, a.Sessions)
	require.NotNil(t, a.Messages)
	require.NotNil(t, a.PeerKeys)

	_, _, err = a.Identity.FingerprintIdentity()
	require.ErrorIs(t, err, store.ErrNoIdentity)
}
