package app

import (
	"os"
)

const (
	// StackFileEnv overrides the default stack definition location.
	StackFileEnv = "WORKBENCH_STACK_FILE"
	// DefaultStackFile is resolved relative to the working directory.
	DefaultStackFile = "stack/docker-compose.yml"
)

// Config holds the application configuration
type Config struct {
	// Data directory override; empty selects the per-user default
	DataDir string

	// Stack definition file
	StackFile string

	// Debug settings
	Debug bool
}

// NewConfig creates a new application configuration
func NewConfig(dataDir, stackFile string, debug bool) *Config {
	return &Config{
		DataDir:   dataDir,
		StackFile: ResolveStackFile(stackFile),
		Debug:     debug,
	}
}

// ResolveStackFile applies flag, then environment, then default.
func ResolveStackFile(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(StackFileEnv); env != "" {
		return env
	}
	return DefaultStackFile
}
