package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/boardsync/internal/domain"
)

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ConfigFileName), []byte(content), 0o600))
}

func TestLoader_Load_Defaults(t *testing.T) {
	// Setup
	localDir := filepath.Join(t.TempDir(), ".boardsync")
	globalDir := t.TempDir()

	// Load config
	cfg, err := NewLoaderWithDirs(localDir, globalDir, "", nil).Load()
	require.NoError(t, err)

	// Verify
	assert.Equal(t, domain.DefaultAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, domain.DefaultPushURL, cfg.Push.URL)
	assert.True(t, cfg.Board.DedupeComments)
	assert.Equal(t, filepath.Join(globalDir, domain.SessionFileName), cfg.Session.Path)
	assert.Empty(t, cfg.Warnings)
}

func TestLoader_Load_LocalOverridesGlobal(t *testing.T) {
	// Setup
	localDir := filepath.Join(t.TempDir(), ".boardsync")
	globalDir := t.TempDir()

	writeConfig(t, globalDir, `
[api]
base_url = "https://global.example.com/api"
timeout = "30s"

[log]
level = "warn"
`)
	writeConfig(t, localDir, `
[api]
base_url = "https://local.example.com/api"

[board]
revert_failed_moves = true
dedupe_comments = false
`)

	// Load config
	cfg, err := NewLoaderWithDirs(localDir, globalDir, "", nil).Load()
	require.NoError(t, err)

	// Verify
	assert.Equal(t, "https://local.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Board.RevertFailedMoves)
	assert.False(t, cfg.Board.DedupeComments, "explicit false overrides the default")
}

func TestLoader_Load_PushSection(t *testing.T) {
	// Setup
	localDir := filepath.Join(t.TempDir(), ".boardsync")
	writeConfig(t, localDir, `
[push]
transport = "redis"
redis_addr = "localhost:6380"
redis_channel_prefix = "team-a"

[session]
path = "/tmp/custom-session.yaml"
`)

	// Load config
	cfg, err := NewLoaderWithDirs(localDir, "", "", nil).Load()
	require.NoError(t, err)

	// Verify
	assert.Equal(t, domain.PushTransportRedis, cfg.Push.Transport)
	assert.Equal(t, "localhost:6380", cfg.Push.RedisAddr)
	assert.Equal(t, "team-a", cfg.Push.ChannelPrefix)
	assert.Equal(t, "/tmp/custom-session.yaml", cfg.Session.Path)
}

func TestLoader_Load_UnknownKeysAreWarnings(t *testing.T) {
	// Setup
	localDir := filepath.Join(t.TempDir(), ".boardsync")
	writeConfig(t, localDir, `
[api]
base_url = "http://x/api"
retries = 3

[theme]
color = "blue"

[push]
transport = "carrier-pigeon"
`)

	// Load config
	cfg, err := NewLoaderWithDirs(localDir, "", "", nil).Load()
	require.NoError(t, err)

	// Verify
	assert.Contains(t, cfg.Warnings, "unknown key in [api]: retries")
	assert.Contains(t, cfg.Warnings, "unknown section: theme")
	assert.Equal(t, domain.PushTransportWebSocket, cfg.Push.Transport)
	assert.Len(t, cfg.Warnings, 3)
}

func TestLoader_Load_TimeoutAsSeconds(t *testing.T) {
	// Setup
	localDir := filepath.Join(t.TempDir(), ".boardsync")
	writeConfig(t, localDir, "[api]\ntimeout = 5\n")

	// Load config
	cfg, err := NewLoaderWithDirs(localDir, "", "", nil).Load()
	require.NoError(t, err)

	// Verify
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
}

func TestLoader_Load_InvalidTOML(t *testing.T) {
	// Setup
	localDir := filepath.Join(t.TempDir(), ".boardsync")
	writeConfig(t, localDir, "[api\nbase_url = ")

	// Load config
	_, err := NewLoaderWithDirs(localDir, "", "", nil).Load()

	// Verify
	assert.Error(t, err)
}

func TestLoader_Load_EnvironmentOverrides(t *testing.T) {
	// Setup
	dir := t.TempDir()
	localDir := filepath.Join(dir, ".boardsync")
	writeConfig(t, localDir, "[api]\nbase_url = \"http://file/api\"\n[log]\nlevel = \"info\"\n")

	dotEnv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotEnv, []byte("BOARDSYNC_API_URL=http://dotenv/api\nBOARDSYNC_LOG_LEVEL=debug\nBOARDSYNC_REDIS_ADDR=redis:6379\n"), 0o600))

	env := envOf(map[string]string{
		EnvAPIURL:        "http://env/api",
		EnvPushTransport: "REDIS",
	})

	// Load config
	cfg, err := NewLoaderWithDirs(localDir, "", dotEnv, env).Load()
	require.NoError(t, err)

	// Verify
	assert.Equal(t, "http://env/api", cfg.API.BaseURL, "process environment wins over .env")
	assert.Equal(t, "debug", cfg.Log.Level, ".env wins over files")
	assert.Equal(t, "redis:6379", cfg.Push.RedisAddr)
	assert.Equal(t, domain.PushTransportRedis, cfg.Push.Transport)
}
