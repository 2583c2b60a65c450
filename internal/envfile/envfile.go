// Package envfile turns a StackConfig into the KEY=VALUE environment file
// consumed by `docker compose --env-file`.
package envfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"workbench/internal/config"
)

// Environment keys, in the order they are written.
const (
	KeyWebUIPort      = "WEBUI_HOST_PORT"
	KeyInferencePort  = "INFERENCE_HOST_PORT"
	KeyFileAPIPort    = "FILE_API_HOST_PORT"
	KeyAdminEmail     = "WEBUI_ADMIN_EMAIL"
	KeyAdminPassword  = "WEBUI_ADMIN_PASSWORD"
	KeyFileAPIKey     = "FILE_API_KEY"
	KeyFileRoots      = "FILE_API_ROOTS"
	KeyFileRootsHost  = "FILE_API_ROOTS_HOST"
	KeyFileDenylist   = "FILE_API_DENYLIST"
	MountPathPrefix   = "/mounted/path"
	RootsSeparator    = ","
	denylistSeparator = ","
)

// Denylist holds path fragments the file-access service must never expose.
// It is fixed and never derived from user input.
var Denylist = []string{
	".ssh", ".gnupg", ".aws", ".kube", "AppData", ".git", "node_modules", ".env",
	"id_rsa", "id_ed25519", "*.pem", "*.key",
}

// Entry is a single KEY=VALUE pair.
type Entry struct {
	Key   string
	Value string
}

// Descriptor is the ordered environment derived from a StackConfig.
type Descriptor []Entry

// Materialize derives the descriptor. It is a pure function of cfg and the
// fixed denylist: equal configs always yield byte-identical output.
func Materialize(cfg config.StackConfig) Descriptor {
	roots := make([]string, len(cfg.AllowedFolders))
	for i := range cfg.AllowedFolders {
		roots[i] = MountPath(i)
	}

	rootsHost := fallbackRootsHost()
	if len(cfg.AllowedFolders) > 0 {
		rootsHost = cfg.AllowedFolders[0]
	}

	return Descriptor{
		{KeyWebUIPort, strconv.Itoa(cfg.WebUIPort)},
		{KeyInferencePort, strconv.Itoa(cfg.InferencePort)},
		{KeyFileAPIPort, strconv.Itoa(cfg.FileAPIPort)},
		{KeyAdminEmail, cfg.AdminEmail},
		{KeyAdminPassword, cfg.AdminPassword},
		{KeyFileAPIKey, cfg.FileAPIKey},
		{KeyFileRoots, strings.Join(roots, RootsSeparator)},
		{KeyFileRootsHost, rootsHost},
		{KeyFileDenylist, strings.Join(Denylist, denylistSeparator)},
	}
}

// MountPath returns the container-internal path for the folder at index i.
// Mount indexes are 1-based.
func MountPath(i int) string {
	return MountPathPrefix + strconv.Itoa(i+1)
}

// fallbackRootsHost is mounted when no folder is allowed, so the stack still
// starts without exposing anything personal.
func fallbackRootsHost() string {
	if runtime.GOOS == "windows" {
		return "C:/Users/Public"
	}
	return "/var/empty"
}

// Get returns the value for key.
func (d Descriptor) Get(key string) (string, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Map returns the descriptor as a map, e.g. for compose interpolation.
func (d Descriptor) Map() map[string]string {
	m := make(map[string]string, len(d))
	for _, e := range d {
		m[e.Key] = e.Value
	}
	return m
}

// Bytes serializes the descriptor as newline-separated KEY=VALUE lines.
// Line breaks inside values are dropped; they would split an entry.
func (d Descriptor) Bytes() []byte {
	var buf bytes.Buffer
	for _, e := range d {
		value := strings.NewReplacer("\r", "", "\n", "").Replace(e.Value)
		fmt.Fprintf(&buf, "%s=%s\n", e.Key, value)
	}
	return buf.Bytes()
}

// Write replaces path with the serialized descriptor. Prior content is not merged.
func (d Descriptor) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create env directory: %w", err)
	}
	if err := os.WriteFile(path, d.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", path, err)
	}
	return nil
}
