package easeldir

import (
	"fmt"
	"os"
)

const gitignoreContent = "local/\n.env\n"

// EnsureStructure creates the local/ directories and .gitignore file if they
// are missing. It is safe to call multiple times (idempotent). It does NOT
// create the .easel/ root itself; the caller decides whether to bootstrap
// from scratch or only set up an existing directory.
func EnsureStructure(d Dir) error {
	if err := os.MkdirAll(d.ExportsDir(), 0o750); err != nil {
		return fmt.Errorf("easeldir: create local dirs: %w", err)
	}

	if err := ensureGitignore(d); err != nil {
		return fmt.Errorf("easeldir: gitignore: %w", err)
	}

	return nil
}

// BootstrapWithConfig creates the .easel/ directory from scratch: the root,
// the local structure, and the config file. An existing config file is left
// untouched.
func BootstrapWithConfig(d Dir, configYAML []byte) error {
	if err := os.MkdirAll(d.Root(), 0o750); err != nil {
		return fmt.Errorf("easeldir: create root: %w", err)
	}

	if err := EnsureStructure(d); err != nil {
		return err
	}

	if _, err := os.Stat(d.ConfigPath()); err == nil {
		return nil // keep the existing config
	}

	if err := os.WriteFile(d.ConfigPath(), configYAML, 0o600); err != nil {
		return fmt.Errorf("easeldir: write config: %w", err)
	}

	return nil
}

// ensureGitignore creates the .gitignore file if it does not exist.
func ensureGitignore(d Dir) error {
	path := d.GitignorePath()

	if _, err := os.Stat(path); err == nil {
		return nil // already exists
	}

	return os.WriteFile(path, []byte(gitignoreContent), 0o600)
}
