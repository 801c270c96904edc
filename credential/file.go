package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File persists the token in a single file so a CLI session survives
// restarts. Writes go through a temp file and a rename.
type File struct {
	path string

	mu sync.Mutex
}

var _ Store = (*File)(nil)

func NewFile(path string) *File { return &File{path: path} }

func (f *File) Path() string { return f.path }

func (f *File) Token() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.path)
	if err != nil {
		return "", false
	}
	tok := strings.TrimSpace(string(b))
	return tok, tok != ""
}

func (f *File) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return f.Clear()
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("credential: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("credential: temp file: %w", err)
	}
	name := tmp.Name()
	defer os.Remove(name) // no-op after a successful rename

	if _, err := tmp.WriteString(token + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("credential: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("credential: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credential: close: %w", err)
	}
	if err := os.Rename(name, f.path); err != nil {
		return fmt.Errorf("credential: rename: %w", err)
	}
	return nil
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("credential: remove: %w", err)
	}
	return nil
}
