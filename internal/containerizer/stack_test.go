package containerizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stackYAML = `services:
  webui:
    image: ghcr.io/open-webui/open-webui:main
    ports:
      - "${WEBUI_HOST_PORT}:8080"
    environment:
      WEBUI_ADMIN_EMAIL: ${WEBUI_ADMIN_EMAIL}
  inference:
    image: ollama/ollama:latest
    ports:
      - "${INFERENCE_HOST_PORT}:11434"
  fileapi:
    image: example/fileapi:latest
    ports:
      - "${FILE_API_HOST_PORT}:8001"
`

func writeStack(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "docker-compose.yml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func stackEnv() map[string]string {
	return map[string]string{
		"WEBUI_HOST_PORT":     "3000",
		"INFERENCE_HOST_PORT": "11434",
		"FILE_API_HOST_PORT":  "8001",
		"WEBUI_ADMIN_EMAIL":   "admin@example.com",
	}
}

func TestLoadStack_ServicesAndPorts(t *testing.T) {
	s, err := LoadStack(context.Background(), writeStack(t, stackYAML), stackEnv())
	require.NoError(t, err)

	assert.Equal(t, []string{"fileapi", "inference", "webui"}, s.ServiceNames())

	ports := s.PublishedPorts()
	assert.Equal(t, []string{"3000"}, ports["webui"])
	assert.Equal(t, []string{"11434"}, ports["inference"])
	assert.Equal(t, []string{"8001"}, ports["fileapi"])
}

func TestStack_CheckService(t *testing.T) {
	s, err := LoadStack(context.Background(), writeStack(t, stackYAML), stackEnv())
	require.NoError(t, err)

	assert.NoError(t, s.CheckService("webui"))
	err = s.CheckService("../etc")
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestLoadStack_MissingFile(t *testing.T) {
	_, err := LoadStack(context.Background(), filepath.Join(t.TempDir(), "nope.yml"), nil)
	assert.Error(t, err)
}

func TestLoadStack_Invalid(t *testing.T) {
	_, err := LoadStack(context.Background(), writeStack(t, "services: [not, a, map]\n"), nil)
	assert.Error(t, err)
}
