package containerizer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

const projectLabel = "com.docker.compose.project"
const serviceLabel = "com.docker.compose.service"

// ContainerInfo is one container of the stack as reported by the engine.
type ContainerInfo struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Service string   `json:"service" yaml:"service"`
	Image   string   `json:"image" yaml:"image"`
	State   string   `json:"state" yaml:"state"`
	Status  string   `json:"status" yaml:"status"`
	Ports   []string `json:"ports,omitempty" yaml:"ports,omitempty"`
}

// Engine queries the container engine API directly.
type Engine struct {
	cli *client.Client
}

// NewEngine connects using DOCKER_HOST and related variables, falling back
// to the platform default socket or named pipe.
func NewEngine() (*Engine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create engine client: %w", err)
	}
	return &Engine{cli: cli}, nil
}

// Close releases the client.
func (e *Engine) Close() error {
	return e.cli.Close()
}

// Ping checks that the engine answers.
func (e *Engine) Ping(ctx context.Context) error {
	_, err := e.cli.Ping(ctx)
	return err
}

// Containers lists every container of the compose project, stopped ones included.
func (e *Engine) Containers(ctx context.Context) ([]ContainerInfo, error) {
	list, err := e.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", projectLabel+"="+ProjectName)),
	})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	out := make([]ContainerInfo, 0, len(list))
	for _, c := range list {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		id := c.ID
		if len(id) > 12 {
			id = id[:12]
		}
		info := ContainerInfo{
			ID:      id,
			Name:    name,
			Service: c.Labels[serviceLabel],
			Image:   c.Image,
			State:   c.State,
			Status:  c.Status,
		}
		for _, p := range c.Ports {
			if p.PublicPort == 0 {
				continue
			}
			info.Ports = append(info.Ports, strconv.Itoa(int(p.PublicPort))+"->"+strconv.Itoa(int(p.PrivatePort))+"/"+p.Type)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out, nil
}
