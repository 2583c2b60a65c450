package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"workbench/pkg/logging"
)

// For mocking in tests
var osUserConfigDir = os.UserConfigDir
var osUserHomeDir = os.UserHomeDir

const (
	appDirName     = "LocalLLMWorkbench"
	configFileName = "config.json"
	envFileName    = ".env"
	logDirName     = "installer-logs"
	logFileName    = "setup.log"
	downloadsDir   = "downloads"

	// DataDirEnv overrides the application data directory.
	DataDirEnv = "WORKBENCH_DATA_DIR"
)

// Paths lists every on-disk location the workbench owns.
type Paths struct {
	DataDir      string
	ConfigFile   string
	EnvFile      string
	LogFile      string
	DownloadsDir string
}

// ResolvePaths derives the well-known file locations. An explicit dataDir
// wins over WORKBENCH_DATA_DIR, which wins over the user config directory.
func ResolvePaths(dataDir string) (Paths, error) {
	if dataDir == "" {
		dataDir = os.Getenv(DataDirEnv)
	}
	if dataDir == "" {
		base, err := osUserConfigDir()
		if err != nil {
			return Paths{}, fmt.Errorf("failed to determine user config directory: %w", err)
		}
		dataDir = filepath.Join(base, appDirName)
	}
	return Paths{
		DataDir:      dataDir,
		ConfigFile:   filepath.Join(dataDir, configFileName),
		EnvFile:      filepath.Join(dataDir, envFileName),
		LogFile:      filepath.Join(dataDir, logDirName, logFileName),
		DownloadsDir: filepath.Join(dataDir, downloadsDir),
	}, nil
}

// Store loads and persists the StackConfig document.
type Store struct {
	paths Paths
}

// NewStore creates a store rooted at the given paths.
func NewStore(paths Paths) *Store {
	return &Store{paths: paths}
}

// Paths returns the locations the store was created with.
func (s *Store) Paths() Paths {
	return s.paths
}

// Load reads the configuration. A missing, malformed or invalid document is
// replaced with defaults rather than reported; only filesystem failures are
// returned.
func (s *Store) Load() (StackConfig, error) {
	data, err := os.ReadFile(s.paths.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Info("Config", "No configuration at %s, writing defaults", s.paths.ConfigFile)
		return s.writeDefaults()
	}
	if err != nil {
		return StackConfig{}, fmt.Errorf("failed to read config %s: %w", s.paths.ConfigFile, err)
	}

	var cfg StackConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return s.restoreDefaults(data, err)
	}
	if cfg.AllowedFolders == nil {
		cfg.AllowedFolders = []string{}
	}
	// a document that parses but lacks fields is as unusable as one that doesn't
	if _, err := cfg.Validate(); err != nil {
		return s.restoreDefaults(data, err)
	}
	return cfg, nil
}

// restoreDefaults keeps the rejected document as config.json.bak and writes
// defaults in its place.
func (s *Store) restoreDefaults(data []byte, reason error) (StackConfig, error) {
	backup := s.paths.ConfigFile + ".bak"
	logging.Warn("Config", "Configuration %s is malformed (%v), preserving it as %s and restoring defaults", s.paths.ConfigFile, reason, backup)
	if werr := os.WriteFile(backup, data, 0o600); werr != nil {
		logging.Warn("Config", "Could not preserve malformed config: %v", werr)
	}
	return s.writeDefaults()
}

// Save validates cfg and persists it in full. Validation warnings (such as
// shared ports) do not prevent the write.
func (s *Store) Save(cfg StackConfig) ([]string, error) {
	warnings, err := cfg.Validate()
	if err != nil {
		return warnings, err
	}
	for _, w := range warnings {
		logging.Warn("Config", "%s", w)
	}
	return warnings, s.write(cfg)
}

func (s *Store) writeDefaults() (StackConfig, error) {
	home, err := osUserHomeDir()
	if err != nil {
		logging.Debug("Config", "No home directory for default folder: %v", err)
		home = ""
	}
	cfg := GetDefaultConfig(home)
	cfg.FileAPIKey = newFileAPIKey()
	if err := s.write(cfg); err != nil {
		return StackConfig{}, err
	}
	return cfg, nil
}

func (s *Store) write(cfg StackConfig) error {
	if cfg.AllowedFolders == nil {
		cfg.AllowedFolders = []string{}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.paths.ConfigFile), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(s.paths.ConfigFile, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", s.paths.ConfigFile, err)
	}
	return nil
}
