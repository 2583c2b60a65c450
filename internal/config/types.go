package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrInvalid is wrapped by every validation failure returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

const (
	minPort = 1024
	maxPort = 65535
)

// StackConfig is the single source of truth for service placement and credentials.
// It is persisted whole; there is no partial update and no schema version.
type StackConfig struct {
	WebUIPort      int      `json:"webuiPort" yaml:"webuiPort"`
	InferencePort  int      `json:"inferencePort" yaml:"inferencePort"`
	FileAPIPort    int      `json:"fileApiPort" yaml:"fileApiPort"`
	AdminEmail     string   `json:"adminEmail" yaml:"adminEmail"`
	AdminPassword  string   `json:"adminPassword" yaml:"adminPassword"`
	FileAPIKey     string   `json:"fileApiKey" yaml:"fileApiKey"`
	AllowedFolders []string `json:"allowedFolders" yaml:"allowedFolders"`
}

// Redacted returns a copy with secrets masked, for display.
func (c StackConfig) Redacted() StackConfig {
	out := c
	out.AllowedFolders = append([]string(nil), c.AllowedFolders...)
	if out.AdminPassword != "" {
		out.AdminPassword = "********"
	}
	if out.FileAPIKey != "" {
		out.FileAPIKey = "********"
	}
	return out
}

// Validate checks the invariants a saved configuration must hold.
// It returns the non-fatal warnings separately from the error.
func (c StackConfig) Validate() (warnings []string, err error) {
	var problems []string

	ports := map[string]int{
		"webuiPort":     c.WebUIPort,
		"inferencePort": c.InferencePort,
		"fileApiPort":   c.FileAPIPort,
	}
	seen := make(map[int]string, len(ports))
	for _, name := range []string{"webuiPort", "inferencePort", "fileApiPort"} {
		port := ports[name]
		if port < minPort || port > maxPort {
			problems = append(problems, fmt.Sprintf("%s %d is outside %d-%d", name, port, minPort, maxPort))
			continue
		}
		if other, dup := seen[port]; dup {
			warnings = append(warnings, fmt.Sprintf("%s and %s share port %d", other, name, port))
		}
		seen[port] = name
	}

	if strings.TrimSpace(c.AdminEmail) == "" {
		problems = append(problems, "adminEmail is empty")
	}
	if c.AdminPassword == "" {
		problems = append(problems, "adminPassword is empty")
	}
	if strings.TrimSpace(c.FileAPIKey) == "" {
		problems = append(problems, "fileApiKey is empty")
	}
	for i, folder := range c.AllowedFolders {
		if !isAbsolute(folder) {
			problems = append(problems, fmt.Sprintf("allowedFolders[%d] %q is not an absolute path", i, folder))
		}
	}

	if len(problems) > 0 {
		return warnings, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return warnings, nil
}

// isAbsolute accepts host-native absolute paths plus Windows drive paths
// written with forward slashes, which is how users tend to type them.
func isAbsolute(p string) bool {
	if filepath.IsAbs(p) {
		return true
	}
	if len(p) >= 3 && p[1] == ':' && (p[2] == '/' || p[2] == '\\') {
		c := p[0] | 0x20
		return c >= 'a' && c <= 'z'
	}
	return false
}

// Keys lists the settable configuration keys in document order.
func Keys() []string {
	return []string{"webuiPort", "inferencePort", "fileApiPort", "adminEmail", "adminPassword", "fileApiKey", "allowedFolders"}
}

// Set assigns one field from its string form. allowedFolders takes a
// comma-separated list; an empty value clears it. The result is not
// validated.
func (c *StackConfig) Set(key, value string) error {
	switch key {
	case "webuiPort", "inferencePort", "fileApiPort":
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s must be a number, got %q", ErrInvalid, key, value)
		}
		switch key {
		case "webuiPort":
			c.WebUIPort = port
		case "inferencePort":
			c.InferencePort = port
		default:
			c.FileAPIPort = port
		}
	case "adminEmail":
		c.AdminEmail = strings.TrimSpace(value)
	case "adminPassword":
		c.AdminPassword = value
	case "fileApiKey":
		c.FileAPIKey = strings.TrimSpace(value)
	case "allowedFolders":
		c.AllowedFolders = []string{}
		for _, f := range strings.Split(value, ",") {
			if f = strings.TrimSpace(f); f != "" {
				c.AllowedFolders = append(c.AllowedFolders, f)
			}
		}
	default:
		return fmt.Errorf("%w: unknown key %q (known: %s)", ErrInvalid, key, strings.Join(Keys(), ", "))
	}
	return nil
}
