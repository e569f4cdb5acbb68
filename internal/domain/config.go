package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Directory and file names.
const (
	AppDirName         = "boardsync"    // Directory name under XDG_CONFIG_HOME and the working directory
	LocalDirName       = ".boardsync"   // Per-directory config directory
	ConfigFileName     = "config.toml"  // Config file name
	SessionFileName    = "session.yaml" // Persisted session file name
	LogFileName        = "boardsync.log"
	DotEnvFileName     = ".env"
	DefaultAPIBaseURL  = "http://localhost:5000/api"
	DefaultPushURL     = "ws://localhost:5000/ws"
	DefaultLogLevel    = "info"
	DefaultRedisPrefix = "boardsync"
	DefaultAPITimeout  = 15 * time.Second
)

// Push transports.
const (
	PushTransportWebSocket = "websocket"
	PushTransportRedis     = "redis"
)

// Config represents the application configuration.
type Config struct {
	API      APIConfig
	Push     PushConfig
	Log      LogConfig
	Session  SessionConfig
	Warnings []string // Unknown keys and other non-fatal problems found while loading
	Board    BoardConfig
}

// APIConfig holds [api] settings.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PushConfig holds [push] settings.
type PushConfig struct {
	Transport     string // websocket or redis
	URL           string // WebSocket URL
	RedisAddr     string // host:port for the redis transport
	ChannelPrefix string // Prefix of the redis pub/sub channels
}

// LogConfig holds [log] settings.
type LogConfig struct {
	Level string // debug, info, warn, error
}

// SessionConfig holds [session] settings.
type SessionConfig struct {
	Path string // Overrides the session file location
}

// BoardConfig holds [board] settings.
type BoardConfig struct {
	RevertFailedMoves bool // Restore the last confirmed status when a drag's edit fails
	DedupeComments    bool // Skip pushed comments whose ID is already on the task
}

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultAPIBaseURL,
			Timeout: DefaultAPITimeout,
		},
		Push: PushConfig{
			Transport:     PushTransportWebSocket,
			URL:           DefaultPushURL,
			ChannelPrefix: DefaultRedisPrefix,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Board: BoardConfig{
			DedupeComments: true,
		},
	}
}

// GlobalDir returns the global config directory.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalDir(configHome string) string {
	return filepath.Join(configHome, AppDirName)
}

// LocalDir returns the per-directory config directory.
func LocalDir(workDir string) string {
	return filepath.Join(workDir, LocalDirName)
}

// ConfigInfo describes a config file on disk.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}

// RenderConfigTemplate renders a commented config file holding cfg's values.
func RenderConfigTemplate(cfg *Config) string {
	var b strings.Builder
	b.WriteString("# boardsync configuration\n\n")
	b.WriteString("[api]\n")
	fmt.Fprintf(&b, "base_url = %q\n", cfg.API.BaseURL)
	fmt.Fprintf(&b, "timeout = %q\n\n", cfg.API.Timeout.String())
	b.WriteString("[push]\n")
	b.WriteString("# websocket or redis\n")
	fmt.Fprintf(&b, "transport = %q\n", cfg.Push.Transport)
	fmt.Fprintf(&b, "url = %q\n", cfg.Push.URL)
	fmt.Fprintf(&b, "# redis_addr = %q\n", "localhost:6379")
	fmt.Fprintf(&b, "redis_channel_prefix = %q\n\n", cfg.Push.ChannelPrefix)
	b.WriteString("[log]\n")
	b.WriteString("# debug, info, warn, error\n")
	fmt.Fprintf(&b, "level = %q\n\n", cfg.Log.Level)
	b.WriteString("[board]\n")
	b.WriteString("# Restore the last confirmed status when moving a card fails\n")
	fmt.Fprintf(&b, "revert_failed_moves = %t\n", cfg.Board.RevertFailedMoves)
	b.WriteString("# Skip pushed comments that are already shown\n")
	fmt.Fprintf(&b, "dedupe_comments = %t\n", cfg.Board.DedupeComments)
	return b.String()
}
