// Package project locates the directory holding the compose stack.
package project

import (
	"os"
	"path/filepath"
)

// Levels is how many path components are stripped from the executable path
// to reach the project root, e.g. <root>/target/release/abel-launcher.
const Levels = 3

// Resolver returns the project directory for one lifecycle operation.
type Resolver func() string

// Fixed always resolves to dir.
func Fixed(dir string) Resolver {
	return func() string { return dir }
}

// FromExecutable resolves relative to the running binary, falling back to
// the current directory.
func FromExecutable() Resolver {
	return func() string {
		exe, err := os.Executable()
		if err != nil {
			return "."
		}
		return FromPath(exe, Levels)
	}
}

// FromPath strips levels components from path. It returns "." when path is
// empty or the walk would have to go above the filesystem root.
func FromPath(path string, levels int) string {
	if path == "" {
		return "."
	}
	dir := filepath.Clean(path)
	for i := 0; i < levels; i++ {
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
	return dir
}
