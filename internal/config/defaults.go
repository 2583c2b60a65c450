package config

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultWebUIPort     = 3000
	DefaultInferencePort = 11434
	DefaultFileAPIPort   = 8001
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "ChangeMe123!"
)

// GetDefaultConfig returns the built-in defaults. The file-API key is left
// empty; Store.Load fills it with a generated token on first run.
func GetDefaultConfig(homeDir string) StackConfig {
	folders := []string{}
	if homeDir != "" {
		folders = append(folders, filepath.ToSlash(filepath.Join(homeDir, "Documents")))
	}
	return StackConfig{
		WebUIPort:      DefaultWebUIPort,
		InferencePort:  DefaultInferencePort,
		FileAPIPort:    DefaultFileAPIPort,
		AdminEmail:     DefaultAdminEmail,
		AdminPassword:  DefaultAdminPassword,
		AllowedFolders: folders,
	}
}

// newFileAPIKey returns a random bearer token for the file-access service.
func newFileAPIKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}
