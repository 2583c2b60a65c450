package containerizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/compose-spec/compose-go/v2/loader"
	composetypes "github.com/compose-spec/compose-go/v2/types"
)

// ErrUnknownService is returned when a service is not part of the stack.
var ErrUnknownService = errors.New("unknown service")

// Stack is a parsed stack definition, interpolated with the materialized
// environment.
type Stack struct {
	project *composetypes.Project
}

// LoadStack parses the stack file with env as its interpolation source so
// mistakes surface before compose is invoked.
func LoadStack(ctx context.Context, stackFile string, env map[string]string) (*Stack, error) {
	abs, err := filepath.Abs(stackFile)
	if err != nil {
		return nil, fmt.Errorf("resolve stack file %s: %w", stackFile, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read stack file %s: %w", stackFile, err)
	}

	mapping := make(composetypes.Mapping, len(env))
	for k, v := range env {
		mapping[k] = v
	}

	details := composetypes.ConfigDetails{
		WorkingDir:  filepath.Dir(abs),
		ConfigFiles: []composetypes.ConfigFile{{Filename: abs, Content: data}},
		Environment: mapping,
	}
	project, err := loader.LoadWithContext(ctx, details, func(o *loader.Options) {
		o.SetProjectName(ProjectName, true)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid stack file %s: %w", stackFile, err)
	}
	return &Stack{project: project}, nil
}

// ServiceNames returns the declared services, sorted.
func (s *Stack) ServiceNames() []string {
	names := s.project.ServiceNames()
	sort.Strings(names)
	return names
}

// CheckService returns ErrUnknownService if name is not declared.
func (s *Stack) CheckService(name string) error {
	if _, ok := s.project.Services[name]; ok {
		return nil
	}
	return fmt.Errorf("%w %q (known: %v)", ErrUnknownService, name, s.ServiceNames())
}

// PublishedPorts maps each service to the host ports it publishes.
func (s *Stack) PublishedPorts() map[string][]string {
	out := make(map[string][]string)
	for name, svc := range s.project.Services {
		for _, p := range svc.Ports {
			if p.Published != "" {
				out[name] = append(out[name], p.Published)
			}
		}
	}
	return out
}
