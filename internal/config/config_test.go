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

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "mode: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/socket", cfg.SocketPath)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 60*time.Second, cfg.PongWait)
	assert.Equal(t, PayloadPermissive, cfg.PayloadPolicy)
	assert.Equal(t, PolicyDrop, cfg.SlowPolicy)
}

func TestLoadFileOverrides(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
port: 9090
payload_policy: strict
slow_policy: kick
allowed_origins:
  - http://localhost:3000
ping_period: 5s
pong_wait: 10s
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, PayloadStrict, cfg.PayloadPolicy)
	assert.Equal(t, PolicyKick, cfg.SlowPolicy)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.PingPeriod)
}

func TestLoadFileEnvWins(t *testing.T) {
	t.Setenv("CHAT_PORT", "7070")
	t.Setenv("CHAT_PAYLOAD_POLICY", "strict")

	cfg, err := LoadFile(writeConfig(t, "port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, PayloadStrict, cfg.PayloadPolicy)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			Port:          8080,
			SocketPath:    "/api/socket",
			ReadLimit:     4096,
			SendBuffer:    16,
			PingPeriod:    time.Second,
			PongWait:      2 * time.Second,
			WriteWait:     time.Second,
			ShutdownWait:  time.Second,
			PayloadPolicy: PayloadPermissive,
			SlowPolicy:    PolicyDrop,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad payload policy", mutate: func(c *Config) { c.PayloadPolicy = "lenient" }, wantErr: "payload_policy"},
		{name: "bad slow policy", mutate: func(c *Config) { c.SlowPolicy = "ban" }, wantErr: "slow_policy"},
		{name: "bad port", mutate: func(c *Config) { c.Port = 0 }, wantErr: "port"},
		{name: "relative socket path", mutate: func(c *Config) { c.SocketPath = "api/socket" }, wantErr: "socket_path"},
		{name: "no read limit", mutate: func(c *Config) { c.ReadLimit = 0 }, wantErr: "read_limit"},
		{name: "zero write wait", mutate: func(c *Config) { c.WriteWait = 0 }, wantErr: "write_wait"},
		{name: "negative shutdown wait", mutate: func(c *Config) { c.ShutdownWait = -time.Second }, wantErr: "shutdown_wait"},
		{name: "empty send buffer", mutate: func(c *Config) { c.SendBuffer = 0 }, wantErr: "send_buffer"},
		{name: "ping after pong", mutate: func(c *Config) { c.PingPeriod = 3 * time.Second }, wantErr: "ping_period"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, (&Config{LogLevel: "debug"}).Level())
	assert.Equal(t, zerolog.InfoLevel, (&Config{LogLevel: ""}).Level())
	assert.Equal(t, zerolog.InfoLevel, (&Config{LogLevel: "loud"}).Level())
}
