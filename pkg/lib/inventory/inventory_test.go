package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	got       container.ListOptions
	summaries []container.Summary
	err       error
}

func (f *fakeLister) ContainerList(_ context.Context, options container.ListOptions) ([]container.Summary, error) {
	f.got = options
	return f.summaries, f.err
}

func TestList(t *testing.T) {
	lister := &fakeLister{summaries: []container.Summary{
		{
			ID:     "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
			Names:  []string{"/abel-qdrant-1"},
			Image:  "qdrant/qdrant:latest",
			State:  "running",
			Status: "Up 3 minutes",
			Labels: map[string]string{ProjectLabel: "abel", ServiceLabel: "qdrant"},
			Ports:  []container.Port{{IP: "0.0.0.0", PrivatePort: 6333, PublicPort: 6333, Type: "tcp"}},
		},
		{
			ID:     "abc",
			Names:  []string{"/abel-api-1"},
			Image:  "abel-api",
			State:  "exited",
			Status: "Exited (1) 2 seconds ago",
			Labels: map[string]string{ProjectLabel: "abel", ServiceLabel: "api"},
			Ports:  []container.Port{{PrivatePort: 8000, Type: "tcp"}},
		},
	}}
	inv := NewWithLister(lister, "abel", nil)

	got, err := inv.List(context.Background())
	require.NoError(t, err)

	assert.True(t, lister.got.All)
	assert.Equal(t, []string{"com.docker.compose.project=abel"}, lister.got.Filters.Get("label"))

	assert.Equal(t, []Container{
		{ID: "abc", Name: "abel-api-1", Service: "api", Image: "abel-api", State: "exited", Status: "Exited (1) 2 seconds ago", Ports: []string{"8000/tcp"}},
		{ID: "9f86d081884c", Name: "abel-qdrant-1", Service: "qdrant", Image: "qdrant/qdrant:latest", State: "running", Status: "Up 3 minutes", Ports: []string{"0.0.0.0:6333->6333/tcp"}},
	}, got)
	assert.NoError(t, inv.Close())
}

func TestList_Error(t *testing.T) {
	inv := NewWithLister(&fakeLister{err: errors.New("Cannot connect to the Docker daemon")}, "abel", nil)

	_, err := inv.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abel")
}

func TestProjectName(t *testing.T) {
	tests := map[string]string{
		"/opt/abel":               "abel",
		"/home/me/Abel-Assistant": "abel-assistant",
		"/srv/my stack.v2":        "mystackv2",
		"/tmp/__x_1":              "x_1",
		".":                       "",
	}
	for dir, want := range tests {
		assert.Equal(t, want, ProjectName(dir), dir)
	}
}
