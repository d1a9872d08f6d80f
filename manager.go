package storekit

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNilStore is returned when a manager is built without a store
var ErrNilStore = errors.New("store cannot be nil")

// StoreManager binds a Store to a base path. Relative paths given to its
// operations are resolved against the base path before they reach the store.
type StoreManager struct {
	store    Store
	basePath string
	logger   *slog.Logger
}

// ManagerOption configures a StoreManager
type ManagerOption func(*StoreManager)

// WithBasePath sets the base path relative arguments are joined onto.
func WithBasePath(p string) ManagerOption {
	return func(m *StoreManager) {
		m.basePath = p
	}
}

// WithManagerLogger sets the manager's logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *StoreManager) {
		m.logger = logger
	}
}

// NewManager creates a manager around store.
func NewManager(store Store, opts ...ManagerOption) (*StoreManager, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	m := &StoreManager{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// ManagerForType builds the store for storeType from a generic access record
// and wraps it in a manager.
func ManagerForType(storeType StoreType, access Access, storeOpts []StoreOption, opts ...ManagerOption) (*StoreManager, error) {
	store, err := GetStoreForType(storeType, access, storeOpts...)
	if err != nil {
		return nil, err
	}
	return NewManager(store, opts...)
}

// Store returns the wrapped store.
func (m *StoreManager) Store() Store {
	return m.store
}

// BasePath returns the base path.
func (m *StoreManager) BasePath() string {
	return m.basePath
}

// SetBasePath replaces the base path.
func (m *StoreManager) SetBasePath(p string) {
	m.basePath = p
}

// Connect establishes the store connection. Calling it once before the first
// operation surfaces credential and network problems early.
func (m *StoreManager) Connect(ctx context.Context) error {
	if err := m.store.Connect(ctx); err != nil {
		return err
	}
	m.logger.Info("store connected", "store", m.store.Type(), "base", m.basePath)
	return nil
}

// Close releases the store connection.
func (m *StoreManager) Close() error {
	return m.store.Close()
}

// Environ returns the store credentials as KEY=value pairs for a child
// process, or nil when the store has nothing to export.
func (m *StoreManager) Environ(ctx context.Context) ([]string, error) {
	if e, ok := m.store.(Environer); ok {
		return e.Environ(ctx)
	}
	return nil, nil
}

func (m *StoreManager) resolve(p string) string {
	return JoinPath(m.basePath, p)
}

// LS lists names under path with both sequences sorted.
func (m *StoreManager) LS(ctx context.Context, path string) (*DirListing, error) {
	listing, err := m.store.LS(ctx, m.resolve(path))
	if err != nil {
		return nil, err
	}
	listing.Sort()
	return listing, nil
}

func (m *StoreManager) List(ctx context.Context, path string, opts ...Option) (*ListingResult, error) {
	return m.store.List(ctx, m.resolve(path), opts...)
}

func (m *StoreManager) Exists(ctx context.Context, path string, opts ...Option) (bool, error) {
	return m.store.Exists(ctx, m.resolve(path), opts...)
}

func (m *StoreManager) Delete(ctx context.Context, path string, opts ...Option) error {
	return m.store.Delete(ctx, m.resolve(path), opts...)
}

// UploadFile uploads filename to remote, or to the base path when remote is
// empty.
func (m *StoreManager) UploadFile(ctx context.Context, filename, remote string, opts ...Option) error {
	return m.store.UploadFile(ctx, filename, m.resolve(remote), opts...)
}

// UploadDir uploads dirname to remote, or to the base path when remote is
// empty.
func (m *StoreManager) UploadDir(ctx context.Context, dirname, remote string, opts ...Option) error {
	return m.store.UploadDir(ctx, dirname, m.resolve(remote), opts...)
}

// DownloadFile downloads filename, resolved against the base path, to
// localPath. An empty localPath lands the file at filename itself.
func (m *StoreManager) DownloadFile(ctx context.Context, filename, localPath string, opts ...Option) error {
	if localPath == "" {
		localPath = filename
	}
	return m.store.DownloadFile(ctx, m.resolve(filename), localPath, opts...)
}

// DownloadDir downloads dirname, resolved against the base path, to
// localPath. An empty localPath lands the tree at dirname itself.
func (m *StoreManager) DownloadDir(ctx context.Context, dirname, localPath string, opts ...Option) error {
	if localPath == "" {
		localPath = dirname
	}
	return m.store.DownloadDir(ctx, m.resolve(dirname), localPath, opts...)
}
