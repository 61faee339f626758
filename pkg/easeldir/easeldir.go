// Package easeldir encapsulates all path knowledge for the .easel/ project
// directory. It provides a Dir value object with accessors for the config
// file, the env file, and local runtime state paths.
package easeldir

import (
	"os"
	"path/filepath"
)

// Dir is a value object that resolves paths within a .easel/ directory.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given path. The path is converted to an
// absolute path. No I/O is performed; use EnsureStructure to create the
// directory layout.
func New(root string) Dir {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	return Dir{root: abs}
}

// Root returns the absolute path to the .easel/ directory.
func (d Dir) Root() string { return d.root }

// ConfigPath returns the path to the main config file.
func (d Dir) ConfigPath() string { return filepath.Join(d.root, "config.yaml") }

// EnvPath returns the path to the .env file holding API credentials.
func (d Dir) EnvPath() string { return filepath.Join(d.root, ".env") }

// LocalDir returns the path to the local (gitignored) runtime state directory.
func (d Dir) LocalDir() string { return filepath.Join(d.root, "local") }

// ExportsDir returns the path where canvas exports are written.
func (d Dir) ExportsDir() string { return filepath.Join(d.root, "local", "exports") }

// GitignorePath returns the path to the .gitignore file inside .easel/.
func (d Dir) GitignorePath() string { return filepath.Join(d.root, ".gitignore") }

// Exists reports whether the .easel/ root directory exists on disk.
func (d Dir) Exists() bool {
	info, err := os.Stat(d.root)

	return err == nil && info.IsDir()
}
