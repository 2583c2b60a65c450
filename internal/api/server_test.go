package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"workbench/internal/config"
	"workbench/internal/containerizer"
	"workbench/internal/fetch"
	"workbench/internal/health"
	"workbench/internal/orchestrator"
	"workbench/internal/registrar"
	"workbench/internal/reporting"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrchestrator struct {
	state     orchestrator.State
	cfg       config.StackConfig
	saved     *config.StackConfig
	prereqs   containerizer.Prerequisites
	installed string
	startRes  orchestrator.StartResult
	logsFor   string
	logsTail  int
	listed    []containerizer.ContainerInfo
	err       error
}

func (f *fakeOrchestrator) State() orchestrator.State { return f.state }

func (f *fakeOrchestrator) Config() (config.StackConfig, error) { return f.cfg, f.err }

func (f *fakeOrchestrator) SaveConfig(cfg config.StackConfig) ([]string, error) {
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	f.saved = &cfg
	return []string{"inferencePort and fileApiPort share port 8001"}, nil
}

func (f *fakeOrchestrator) CheckPrerequisites(context.Context) (containerizer.Prerequisites, error) {
	return f.prereqs, f.err
}

func (f *fakeOrchestrator) InstallArtifact(_ context.Context, spec orchestrator.ArtifactSpec, _ string) (fetch.Artifact, error) {
	if f.err != nil {
		return fetch.Artifact{}, f.err
	}
	f.installed = spec.Name
	return fetch.Artifact{
		Path:   "/data/downloads/" + spec.FileName,
		Digest: digest.FromString("installer"),
		Size:   9,
	}, nil
}

func (f *fakeOrchestrator) PullImages(context.Context) error {
	if f.err == nil {
		f.state = orchestrator.StateProvisioned
	}
	return f.err
}

func (f *fakeOrchestrator) StartStack(context.Context) (orchestrator.StartResult, error) {
	if f.err != nil {
		return orchestrator.StartResult{}, f.err
	}
	f.state = orchestrator.StateServicesReady
	return f.startRes, nil
}

func (f *fakeOrchestrator) Stop(context.Context) error {
	if f.err == nil {
		f.state = orchestrator.StateStopped
	}
	return f.err
}

func (f *fakeOrchestrator) Logs(_ context.Context, service string, tail int) (string, error) {
	f.logsFor, f.logsTail = service, tail
	if service != "webui" {
		return "", fmt.Errorf("%w %q", containerizer.ErrUnknownService, service)
	}
	return "webui | ready\n", nil
}

func (f *fakeOrchestrator) Status(context.Context) (orchestrator.Status, error) {
	return orchestrator.Status{State: f.state, WebUIURL: "http://127.0.0.1:3000"}, f.err
}

func (f *fakeOrchestrator) Containers(context.Context) ([]containerizer.ContainerInfo, error) {
	return f.listed, f.err
}

func (f *fakeOrchestrator) WebUIURL() (string, error) { return "http://127.0.0.1:3000", f.err }

func validConfig() config.StackConfig {
	return config.StackConfig{
		WebUIPort:      3000,
		InferencePort:  8001,
		FileAPIPort:    8001,
		AdminEmail:     "admin@example.com",
		AdminPassword:  "secret",
		FileAPIKey:     "key",
		AllowedFolders: []string{"/home/alice/docs"},
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelopeOf) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelopeOf
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

type envelopeOf struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func TestStackRoutes(t *testing.T) {
	orch := &fakeOrchestrator{
		state: orchestrator.StatePrerequisitesChecked,
		startRes: orchestrator.StartResult{
			Probe:   health.Outcome{Ready: true, Attempts: 2},
			Warning: &registrar.Warning{Step: registrar.StepAuthenticate, Err: errors.New("boom")},
		},
	}
	h := NewServer(orch, nil).Handler()

	code, env := do(t, h, http.MethodPost, "/api/stack/pull", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"state":"Provisioned","running":false}`, string(env.Data))

	code, env = do(t, h, http.MethodPost, "/api/stack/start", "")
	require.Equal(t, http.StatusOK, code)
	var started StartResponse
	require.NoError(t, json.Unmarshal(env.Data, &started))
	assert.Equal(t, orchestrator.StateServicesReady, started.State)
	assert.Equal(t, 2, started.Attempts)
	assert.Contains(t, started.RegistrationWarning, "boom")

	code, env = do(t, h, http.MethodGet, "/api/stack/state", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"state":"ServicesReady","running":true}`, string(env.Data))

	code, _ = do(t, h, http.MethodPost, "/api/stack/stop", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, orchestrator.StateStopped, orch.state)

	code, env = do(t, h, http.MethodGet, "/api/webui-url", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"url":"http://127.0.0.1:3000"}`, string(env.Data))

	code, env = do(t, h, http.MethodGet, "/api/stack/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"state":"Stopped"`)
}

func TestBusyMapsToConflict(t *testing.T) {
	h := NewServer(&fakeOrchestrator{err: orchestrator.ErrBusy}, nil).Handler()

	for _, path := range []string{"/api/stack/start", "/api/stack/stop", "/api/stack/pull", "/api/setup/check"} {
		code, env := do(t, h, http.MethodPost, path, "")
		assert.Equal(t, http.StatusConflict, code, path)
		assert.Equal(t, orchestrator.ErrBusy.Error(), env.Error, path)
	}
}

func TestRuntimeNotReadyMapsToPreconditionFailed(t *testing.T) {
	notReady := &orchestrator.StepError{Step: orchestrator.StepPrerequisites, Err: orchestrator.ErrPrerequisitesNotMet}
	h := NewServer(&fakeOrchestrator{err: notReady}, nil).Handler()

	for _, path := range []string{"/api/stack/start", "/api/stack/pull"} {
		code, env := do(t, h, http.MethodPost, path, "")
		assert.Equal(t, http.StatusPreconditionFailed, code, path)
		assert.Contains(t, env.Error, orchestrator.ErrPrerequisitesNotMet.Error(), path)
	}
}

func TestContainersRoute(t *testing.T) {
	orch := &fakeOrchestrator{listed: []containerizer.ContainerInfo{
		{ID: "0123456789ab", Name: "workbench-webui-1", Service: "webui", State: "running", Ports: []string{"3000->8080/tcp"}},
	}}
	h := NewServer(orch, nil).Handler()

	code, env := do(t, h, http.MethodGet, "/api/stack/containers", "")
	require.Equal(t, http.StatusOK, code)
	var got []containerizer.ContainerInfo
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, orch.listed, got)

	h = NewServer(&fakeOrchestrator{err: errors.New("engine unreachable")}, nil).Handler()
	code, env = do(t, h, http.MethodGet, "/api/stack/containers", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "engine unreachable", env.Error)
}

func TestConfigRoutes(t *testing.T) {
	orch := &fakeOrchestrator{cfg: validConfig()}
	h := NewServer(orch, nil).Handler()

	code, env := do(t, h, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, code)
	var got ConfigResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, validConfig(), got.Config)

	body, err := json.Marshal(validConfig())
	require.NoError(t, err)
	code, env = do(t, h, http.MethodPut, "/api/config", string(body))
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Len(t, got.Warnings, 1)
	require.NotNil(t, orch.saved)

	t.Run("invalid config is a bad request", func(t *testing.T) {
		bad := validConfig()
		bad.WebUIPort = 80
		body, err := json.Marshal(bad)
		require.NoError(t, err)
		code, env := do(t, h, http.MethodPut, "/api/config", string(body))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, env.Error, "webuiPort 80")
	})

	t.Run("unknown field is a bad request", func(t *testing.T) {
		code, _ := do(t, h, http.MethodPut, "/api/config", `{"webuiPort":3000,"extra":true}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		code, _ := do(t, h, http.MethodPut, "/api/config", `{`)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestSetupRoutes(t *testing.T) {
	orch := &fakeOrchestrator{prereqs: containerizer.Prerequisites{}}
	h := NewServer(orch, nil).Handler()

	code, env := do(t, h, http.MethodPost, "/api/setup/check", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, fmt.Sprintf(`{"installed":false,"running":false,"ready":false,"downloadUrl":%q}`, containerizer.RuntimeDownloadURL), string(env.Data))

	code, env = do(t, h, http.MethodPost, "/api/setup/artifacts/vcredist", "")
	require.Equal(t, http.StatusOK, code)
	var art ArtifactResponse
	require.NoError(t, json.Unmarshal(env.Data, &art))
	assert.Equal(t, "vcredist", orch.installed)
	assert.Equal(t, digest.FromString("installer").Encoded(), art.SHA256)

	code, _ = do(t, h, http.MethodPost, "/api/setup/artifacts/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLogsRoute(t *testing.T) {
	orch := &fakeOrchestrator{}
	h := NewServer(orch, nil).Handler()

	code, env := do(t, h, http.MethodGet, "/api/stack/logs/webui", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"service":"webui","logs":"webui | ready\n"}`, string(env.Data))
	assert.Equal(t, containerizer.DefaultLogTail, orch.logsTail)

	code, _ = do(t, h, http.MethodGet, "/api/stack/logs/webui?tail=20", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 20, orch.logsTail)

	code, _ = do(t, h, http.MethodGet, "/api/stack/logs/webui?tail=-1", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodGet, "/api/stack/logs/postgres", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestInternalErrorCarriesMessage(t *testing.T) {
	h := NewServer(&fakeOrchestrator{err: errors.New("disk full")}, nil).Handler()

	code, env := do(t, h, http.MethodGet, "/api/config", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "disk full", env.Error)
}

func TestEventsStream(t *testing.T) {
	bus := reporting.NewBus()
	defer bus.Close()

	srv := httptest.NewServer(NewServer(&fakeOrchestrator{}, bus).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events?types=log.line", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	bus.Publish(reporting.NewProgress("op", "vcredist", 1, 2))
	bus.Publish(reporting.NewLogLine("op", reporting.SeverityInfo, "Starting services"))

	var eventLine, dataLine string
	for eventLine == "" || dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}

	assert.Equal(t, string(reporting.EventTypeLogLine), eventLine)
	var ev reporting.Event
	require.NoError(t, json.Unmarshal([]byte(dataLine), &ev))
	assert.Equal(t, "Starting services", ev.Line)
	assert.Equal(t, "op", ev.OperationID)
}

func TestEventsNotRoutedWithoutBus(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(&fakeOrchestrator{}, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
