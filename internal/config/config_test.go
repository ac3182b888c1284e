package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, "evict", cfg.Session.HostPolicy)
	assert.False(t, cfg.Session.NotifyExistingPeers)
	assert.Zero(t, cfg.Session.HandshakeTimeout)
	assert.Equal(t, 50, cfg.Session.RateLimit)
	assert.Empty(t, cfg.Auth.JWTSecret)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	yaml := `
mode: debug
port: 9000
session:
  host_policy: reject
  notify_existing_peers: true
  handshake_timeout: 15s
auth:
  jwt_secret: s3cret
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("ATTEND_PORT", "9100")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "reject", cfg.Session.HostPolicy)
	assert.True(t, cfg.Session.NotifyExistingPeers)
	assert.Equal(t, 15*time.Second, cfg.Session.HandshakeTimeout)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [1,"), 0o600))
	_, err := LoadFile(path)
	assert.Error(t, err)
}
