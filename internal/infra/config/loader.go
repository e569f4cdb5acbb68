// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/runoshun/boardsync/internal/domain"
)

// Environment variables that override file settings.
const (
	EnvAPIURL        = "BOARDSYNC_API_URL"
	EnvPushURL       = "BOARDSYNC_PUSH_URL"
	EnvPushTransport = "BOARDSYNC_PUSH_TRANSPORT"
	EnvRedisAddr     = "BOARDSYNC_REDIS_ADDR"
	EnvLogLevel      = "BOARDSYNC_LOG_LEVEL"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files and the environment.
type Loader struct {
	lookupEnv     func(string) (string, bool)
	localDir      string // Path to ./.boardsync
	globalConfDir string // Path to global config directory (e.g., ~/.config/boardsync)
	dotEnvPath    string // Optional .env file
}

// NewLoader creates a Loader for the given working directory.
func NewLoader(workDir string) *Loader {
	return &Loader{
		lookupEnv:     os.LookupEnv,
		localDir:      domain.LocalDir(workDir),
		globalConfDir: DefaultGlobalConfigDir(),
		dotEnvPath:    filepath.Join(workDir, domain.DotEnvFileName),
	}
}

// NewLoaderWithDirs creates a Loader with explicit locations and environment.
// This is useful for testing.
func NewLoaderWithDirs(localDir, globalConfDir, dotEnvPath string, lookupEnv func(string) (string, bool)) *Loader {
	if lookupEnv == nil {
		lookupEnv = func(string) (string, bool) { return "", false }
	}
	return &Loader{
		lookupEnv:     lookupEnv,
		localDir:      localDir,
		globalConfDir: globalConfDir,
		dotEnvPath:    dotEnvPath,
	}
}

// DefaultGlobalConfigDir returns the default global config directory.
func DefaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalDir(configHome)
}

// GlobalDir returns the global config directory. Logs and the default
// session file live here too.
func (l *Loader) GlobalDir() string {
	return l.globalConfDir
}

// Load returns the merged configuration.
// Precedence: defaults <- global file <- local file <- .env <- environment.
func (l *Loader) Load() (*domain.Config, error) {
	cfg := domain.NewDefaultConfig()

	for _, path := range l.paths() {
		fc, err := loadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		fc.apply(cfg)
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.Session.Path == "" && l.globalConfDir != "" {
		cfg.Session.Path = filepath.Join(l.globalConfDir, domain.SessionFileName)
	}
	if cfg.Push.Transport != domain.PushTransportWebSocket && cfg.Push.Transport != domain.PushTransportRedis {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown push transport %q, using %s", cfg.Push.Transport, domain.PushTransportWebSocket))
		cfg.Push.Transport = domain.PushTransportWebSocket
	}
	return cfg, nil
}

func (l *Loader) paths() []string {
	var paths []string
	if l.globalConfDir != "" {
		paths = append(paths, filepath.Join(l.globalConfDir, domain.ConfigFileName))
	}
	if l.localDir != "" {
		paths = append(paths, filepath.Join(l.localDir, domain.ConfigFileName))
	}
	return paths
}

// applyEnv applies environment overrides. Variables set in the process
// environment win over the same variables in the .env file.
func (l *Loader) applyEnv(cfg *domain.Config) error {
	dotEnv := map[string]string{}
	if l.dotEnvPath != "" {
		m, err := godotenv.Read(l.dotEnvPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read %s: %w", l.dotEnvPath, err)
		}
		if m != nil {
			dotEnv = m
		}
	}

	get := func(key string) (string, bool) {
		if v, ok := l.lookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotEnv[key]
		return v, ok && v != ""
	}

	if v, ok := get(EnvAPIURL); ok {
		cfg.API.BaseURL = v
	}
	if v, ok := get(EnvPushURL); ok {
		cfg.Push.URL = v
	}
	if v, ok := get(EnvPushTransport); ok {
		cfg.Push.Transport = strings.ToLower(v)
	}
	if v, ok := get(EnvRedisAddr); ok {
		cfg.Push.RedisAddr = v
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	return nil
}

// fileConfig is one parsed config file. Nil fields were not set.
type fileConfig struct {
	apiBaseURL        *string
	apiTimeout        *time.Duration
	pushTransport     *string
	pushURL           *string
	redisAddr         *string
	channelPrefix     *string
	logLevel          *string
	sessionPath       *string
	revertFailedMoves *bool
	dedupeComments    *bool
	warnings          []string
}

// loadFile loads a configuration from a file.
func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	return convertRaw(raw), nil
}

// convertRaw converts the raw map to a fileConfig and collects warnings.
func convertRaw(raw map[string]any) *fileConfig {
	fc := &fileConfig{}
	var warnings []string

	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown key: %s", section))
			continue
		}
		switch section {
		case "api":
			for k, v := range m {
				switch k {
				case "base_url":
					fc.apiBaseURL = stringValue(v)
				case "timeout":
					d, err := durationValue(v)
					if err != nil {
						warnings = append(warnings, fmt.Sprintf("invalid [api] timeout: %v", err))
						continue
					}
					fc.apiTimeout = &d
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [api]: %s", k))
				}
			}
		case "push":
			for k, v := range m {
				switch k {
				case "transport":
					fc.pushTransport = stringValue(v)
				case "url":
					fc.pushURL = stringValue(v)
				case "redis_addr":
					fc.redisAddr = stringValue(v)
				case "redis_channel_prefix":
					fc.channelPrefix = stringValue(v)
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [push]: %s", k))
				}
			}
		case "log":
			for k, v := range m {
				switch k {
				case "level":
					fc.logLevel = stringValue(v)
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [log]: %s", k))
				}
			}
		case "board":
			for k, v := range m {
				switch k {
				case "revert_failed_moves":
					fc.revertFailedMoves = boolValue(v)
				case "dedupe_comments":
					fc.dedupeComments = boolValue(v)
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [board]: %s", k))
				}
			}
		case "session":
			for k, v := range m {
				switch k {
				case "path":
					fc.sessionPath = stringValue(v)
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [session]: %s", k))
				}
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
		}
	}

	sort.Strings(warnings)
	fc.warnings = warnings
	return fc
}

// apply overrides the fields of cfg that are set in fc.
func (fc *fileConfig) apply(cfg *domain.Config) {
	setString(&cfg.API.BaseURL, fc.apiBaseURL)
	setString(&cfg.Push.Transport, fc.pushTransport)
	setString(&cfg.Push.URL, fc.pushURL)
	setString(&cfg.Push.RedisAddr, fc.redisAddr)
	setString(&cfg.Push.ChannelPrefix, fc.channelPrefix)
	setString(&cfg.Log.Level, fc.logLevel)
	setString(&cfg.Session.Path, fc.sessionPath)
	if fc.apiTimeout != nil {
		cfg.API.Timeout = *fc.apiTimeout
	}
	if fc.revertFailedMoves != nil {
		cfg.Board.RevertFailedMoves = *fc.revertFailedMoves
	}
	if fc.dedupeComments != nil {
		cfg.Board.DedupeComments = *fc.dedupeComments
	}
	cfg.Warnings = append(cfg.Warnings, fc.warnings...)
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func stringValue(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func boolValue(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

// durationValue accepts a Go duration string ("15s") or a number of seconds.
func durationValue(v any) (time.Duration, error) {
	switch t := v.(type) {
	case string:
		return time.ParseDuration(t)
	case int64:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
}
