package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/runoshun/boardsync/internal/domain"
)

// Ensure Manager implements domain.ConfigManager.
var _ domain.ConfigManager = (*Manager)(nil)

// Manager manages configuration files.
type Manager struct {
	localDir      string // Path to ./.boardsync
	globalConfDir string // Path to global config directory (e.g., ~/.config/boardsync)
}

// NewManager creates a new Manager for the given working directory.
func NewManager(workDir string) *Manager {
	return &Manager{
		localDir:      domain.LocalDir(workDir),
		globalConfDir: DefaultGlobalConfigDir(),
	}
}

// NewManagerWithDirs creates a new Manager with explicit directories.
// This is useful for testing.
func NewManagerWithDirs(localDir, globalConfDir string) *Manager {
	return &Manager{
		localDir:      localDir,
		globalConfDir: globalConfDir,
	}
}

// LocalConfigInfo returns information about the per-directory config file.
func (m *Manager) LocalConfigInfo() domain.ConfigInfo {
	return m.configInfo(filepath.Join(m.localDir, domain.ConfigFileName))
}

// GlobalConfigInfo returns information about the global config file.
func (m *Manager) GlobalConfigInfo() domain.ConfigInfo {
	if m.globalConfDir == "" {
		return domain.ConfigInfo{}
	}
	return m.configInfo(filepath.Join(m.globalConfDir, domain.ConfigFileName))
}

func (m *Manager) configInfo(path string) domain.ConfigInfo {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.ConfigInfo{Path: path}
	}
	return domain.ConfigInfo{
		Path:    path,
		Content: string(content),
		Exists:  true,
	}
}

// InitLocalConfig creates the per-directory config file from a template.
func (m *Manager) InitLocalConfig(cfg *domain.Config) error {
	return m.initConfig(m.localDir, cfg)
}

// InitGlobalConfig creates the global config file from a template.
func (m *Manager) InitGlobalConfig(cfg *domain.Config) error {
	if m.globalConfDir == "" {
		return errors.New("global config directory not available")
	}
	return m.initConfig(m.globalConfDir, cfg)
}

func (m *Manager) initConfig(dir string, cfg *domain.Config) error {
	path := filepath.Join(dir, domain.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return domain.ErrConfigExists
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(domain.RenderConfigTemplate(cfg)), 0o600)
}
