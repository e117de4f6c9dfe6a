package project

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromPath(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		levels int
		want   string
	}{
		{"release layout", "/opt/abel/target/release/abel-launcher", 3, "/opt/abel"},
		{"exactly at root", "/a/b/c", 3, "/"},
		{"above root", "/a/b", 3, "."},
		{"root itself", "/", 1, "."},
		{"empty", "", 3, "."},
		{"zero levels", "/x/y", 0, "/x/y"},
		{"uncleaned", "/opt//abel/bin/../bin/abel", 2, "/opt/abel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), FromPath(filepath.FromSlash(tt.path), tt.levels))
		})
	}
}

func TestFixed(t *testing.T) {
	assert.Equal(t, "/srv/abel", Fixed("/srv/abel")())
}

func TestFromExecutable_ResolvesSomething(t *testing.T) {
	assert.NotEmpty(t, FromExecutable()())
}
