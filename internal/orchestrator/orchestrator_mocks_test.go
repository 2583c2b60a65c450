package orchestrator

import (
	"context"
	"sync"
	"time"

	"workbench/internal/containerizer"
	"workbench/internal/fetch"
	"workbench/internal/health"
	"workbench/internal/registrar"
	"workbench/internal/runner"

	"github.com/stretchr/testify/mock"
)

// Mock ComposeRunner
type mockCompose struct {
	mock.Mock
}

func (m *mockCompose) Pull(ctx context.Context, sink runner.Sink) runner.Result {
	args := m.Called(ctx, sink)
	return args.Get(0).(runner.Result)
}

func (m *mockCompose) Up(ctx context.Context, sink runner.Sink) runner.Result {
	args := m.Called(ctx, sink)
	return args.Get(0).(runner.Result)
}

func (m *mockCompose) Down(ctx context.Context, sink runner.Sink) runner.Result {
	args := m.Called(ctx, sink)
	return args.Get(0).(runner.Result)
}

func (m *mockCompose) Logs(ctx context.Context, service string, tail int, sink runner.Sink) runner.Result {
	args := m.Called(ctx, service, tail, sink)
	return args.Get(0).(runner.Result)
}

// Mock Executor
type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Run(ctx context.Context, e runner.Execution) runner.Result {
	args := m.Called(ctx, e)
	return args.Get(0).(runner.Result)
}

// Mock Fetcher
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Download(ctx context.Context, url, dest string, onProgress fetch.ProgressFunc) (fetch.Artifact, error) {
	args := m.Called(ctx, url, dest, onProgress)
	return args.Get(0).(fetch.Artifact), args.Error(1)
}

// Mock Prober
type mockProber struct {
	mock.Mock
}

func (m *mockProber) WaitReady(ctx context.Context, baseURL, path string, interval time.Duration, maxAttempts int) (health.Outcome, error) {
	args := m.Called(ctx, baseURL, path, interval, maxAttempts)
	return args.Get(0).(health.Outcome), args.Error(1)
}

// Mock Registrar
type mockRegistrar struct {
	mock.Mock
}

func (m *mockRegistrar) Register(ctx context.Context, baseURL string, creds registrar.Credentials, c registrar.Capability) *registrar.Warning {
	args := m.Called(ctx, baseURL, creds, c)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*registrar.Warning)
}

// Mock PrerequisiteChecker
type mockPrereqs struct {
	mock.Mock
}

func (m *mockPrereqs) Check(ctx context.Context) containerizer.Prerequisites {
	args := m.Called(ctx)
	return args.Get(0).(containerizer.Prerequisites)
}

// Mock ContainerLister
type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockEngine) Containers(ctx context.Context) ([]containerizer.ContainerInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]containerizer.ContainerInfo), args.Error(1)
}

// blockingCompose holds Up until released, to observe a running operation.
type blockingCompose struct {
	mockCompose
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingCompose) Up(ctx context.Context, sink runner.Sink) runner.Result {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return runner.Result{}
}
