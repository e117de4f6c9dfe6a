// Package inventory lists the containers of the compose project through the
// Docker Engine API.
package inventory

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"go.uber.org/zap"
)

// Labels set by docker compose on every container it creates.
const (
	ProjectLabel = "com.docker.compose.project"
	ServiceLabel = "com.docker.compose.service"
)

// ContainerLister is the part of the Docker client the inventory needs.
type ContainerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// Container is one container of the project as shown to users.
type Container struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Service string   `json:"service"`
	Image   string   `json:"image"`
	State   string   `json:"state"`
	Status  string   `json:"status"`
	Ports   []string `json:"ports,omitempty"`
}

// Inventory lists containers labelled with one compose project name.
type Inventory struct {
	lister  ContainerLister
	closer  func() error
	project string
	logger  *zap.Logger
}

// New connects to the Docker daemon configured by the DOCKER_* environment.
func New(projectName string, logger *zap.Logger) (*Inventory, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	inv := NewWithLister(cli, projectName, logger)
	inv.closer = cli.Close
	return inv, nil
}

func NewWithLister(lister ContainerLister, projectName string, logger *zap.Logger) *Inventory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inventory{lister: lister, project: projectName, logger: logger}
}

func (inv *Inventory) Project() string {
	return inv.project
}

// List returns the project's containers, stopped ones included, ordered by
// service and name.
func (inv *Inventory) List(ctx context.Context) ([]Container, error) {
	summaries, err := inv.lister.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", ProjectLabel+"="+inv.project)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers of %s: %w", inv.project, err)
	}

	out := make([]Container, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, fromSummary(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Service != out[j].Service {
			return out[i].Service < out[j].Service
		}
		return out[i].Name < out[j].Name
	})

	inv.logger.Debug("listed containers", zap.String("project", inv.project), zap.Int("count", len(out)))
	return out, nil
}

func (inv *Inventory) Close() error {
	if inv.closer == nil {
		return nil
	}
	return inv.closer()
}

func fromSummary(s container.Summary) Container {
	c := Container{
		ID:      shortID(s.ID),
		Service: s.Labels[ServiceLabel],
		Image:   s.Image,
		State:   string(s.State),
		Status:  s.Status,
	}
	if len(s.Names) > 0 {
		c.Name = strings.TrimPrefix(s.Names[0], "/")
	}
	for _, p := range s.Ports {
		c.Ports = append(c.Ports, formatPort(p))
	}
	return c
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func formatPort(p container.Port) string {
	if p.PublicPort == 0 {
		return fmt.Sprintf("%d/%s", p.PrivatePort, p.Type)
	}
	ip := p.IP
	if ip == "" {
		ip = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d->%d/%s", ip, p.PublicPort, p.PrivatePort, p.Type)
}

// ProjectName derives the compose project name from the project directory
// the way compose does: the base name, lower-cased, keeping only letters,
// digits, '-' and '_', and starting with a letter or digit.
func ProjectName(dir string) string {
	base := strings.ToLower(filepath.Base(filepath.Clean(dir)))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			if b.Len() > 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
