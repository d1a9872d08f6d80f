// Package local implements the local filesystem backend.
package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobeaver/storekit"
)

// Adapter is the local filesystem storekit.TreeBackend
type Adapter struct {
	root string
}

// AdapterOption is a function that configures Adapter
type AdapterOption func(*Adapter)

// WithRoot confines the adapter to root. Relative paths resolve under it and
// paths that escape it are rejected.
func WithRoot(root string) AdapterOption {
	return func(a *Adapter) {
		a.root = root
	}
}

// New creates a local filesystem backend
func New(options ...AdapterOption) (*Adapter, error) {
	adapter := &Adapter{}
	for _, option := range options {
		option(adapter)
	}

	if adapter.root != "" {
		absRoot, err := filepath.Abs(adapter.root)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(absRoot, 0o755); err != nil {
			return nil, err
		}
		adapter.root = absRoot
	}

	return adapter, nil
}

// NewStore creates a local filesystem storekit.TreeStore
func NewStore(options ...AdapterOption) (*storekit.TreeStore, error) {
	a, err := New(options...)
	if err != nil {
		return nil, err
	}
	return storekit.NewTreeStore(a, nil), nil
}

func (a *Adapter) Type() storekit.StoreType {
	return storekit.TypeLocal
}

// Connect only honours cancellation; there is nothing to dial.
func (a *Adapter) Connect(ctx context.Context) error {
	return ctx.Err()
}

func (a *Adapter) Close() error {
	return nil
}

// Root returns the confining directory, empty when unconfined.
func (a *Adapter) Root() string {
	return a.root
}

func (a *Adapter) ResolvePath(addr storekit.Address) (string, error) {
	if addr.Type != storekit.TypeLocal && addr.Type != "" {
		return "", &storekit.PathError{
			Op:   "resolve",
			Path: addr.String(),
			Err:  fmt.Errorf("%w: %s address on a local store", storekit.ErrInvalidAddress, addr.Type),
		}
	}

	p := filepath.FromSlash(addr.Key)
	if p == "" {
		p = "."
	}
	if a.root == "" {
		return filepath.Clean(p), nil
	}

	var full string
	if filepath.IsAbs(p) {
		full = filepath.Clean(p)
	} else {
		full = filepath.Join(a.root, p)
	}
	if !isPathUnderRoot(a.root, full) {
		return "", &storekit.PathError{Op: "resolve", Path: addr.Key, Err: storekit.ErrInvalidPath}
	}
	return full, nil
}

func isPathUnderRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return !filepath.IsAbs(rel) && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (a *Adapter) Join(elem ...string) string {
	return filepath.Join(elem...)
}

func (a *Adapter) ReadDir(dir string) ([]fs.FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	infos := make([]fs.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// removed between the read and the stat
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (a *Adapter) Stat(p string) (fs.FileInfo, error) {
	return os.Stat(p)
}

func (a *Adapter) MkdirAll(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

func (a *Adapter) Remove(p string) error {
	return os.Remove(p)
}

func (a *Adapter) RemoveDir(p string) error {
	return os.Remove(p)
}

func (a *Adapter) Open(p string) (io.ReadCloser, error) {
	return os.Open(p)
}

// Create creates or truncates p, making missing parent directories.
func (a *Adapter) Create(p string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	return os.Create(p)
}

var _ storekit.TreeBackend = (*Adapter)(nil)
