package storekit

import (
	"context"
	"errors"
)

// ErrReadOnly is returned when a mutating operation reaches a read-only store.
var ErrReadOnly = errors.New("store is read-only")

// ReadOnlyStore wraps a Store and rejects uploads and deletes. Listing and
// downloads are delegated unchanged.
//
//	ro := storekit.NewReadOnlyStore(store)
//	err := ro.UploadFile(ctx, "a.csv", "s3://bucket/a.csv")
//	// errors.Is(err, storekit.ErrReadOnly)
type ReadOnlyStore struct {
	store Store
	opts  ReadOnlyOptions
}

// ReadOnlyOptions configures a ReadOnlyStore.
type ReadOnlyOptions struct {
	// AllowDelete lets Delete through.
	AllowDelete bool

	// OnWriteAttempt is called for every rejected operation. A nil return
	// lets the operation through.
	OnWriteAttempt func(op, path string) error
}

// ReadOnlyOption configures ReadOnlyOptions
type ReadOnlyOption func(*ReadOnlyOptions)

// WithAllowDelete allows deletes through the read-only store.
func WithAllowDelete(allow bool) ReadOnlyOption {
	return func(o *ReadOnlyOptions) {
		o.AllowDelete = allow
	}
}

// WithWriteAttemptHandler sets a handler consulted on every write attempt.
func WithWriteAttemptHandler(handler func(op, path string) error) ReadOnlyOption {
	return func(o *ReadOnlyOptions) {
		o.OnWriteAttempt = handler
	}
}

// NewReadOnlyStore creates a read-only view of store.
func NewReadOnlyStore(store Store, opts ...ReadOnlyOption) *ReadOnlyStore {
	options := ReadOnlyOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return &ReadOnlyStore{store: store, opts: options}
}

// Unwrap returns the wrapped store.
func (r *ReadOnlyStore) Unwrap() Store {
	return r.store
}

func (r *ReadOnlyStore) reject(op, path string) error {
	if r.opts.OnWriteAttempt != nil {
		if err := r.opts.OnWriteAttempt(op, path); err != nil {
			return &PathError{Op: op, Path: path, Err: err}
		}
		return nil
	}
	return &PathError{Op: op, Path: path, Err: ErrReadOnly}
}

func (r *ReadOnlyStore) Type() StoreType                   { return r.store.Type() }
func (r *ReadOnlyStore) Connect(ctx context.Context) error { return r.store.Connect(ctx) }
func (r *ReadOnlyStore) Close() error                      { return r.store.Close() }

// Environ delegates when the wrapped store exports credentials.
func (r *ReadOnlyStore) Environ(ctx context.Context) ([]string, error) {
	if e, ok := r.store.(Environer); ok {
		return e.Environ(ctx)
	}
	return nil, nil
}

func (r *ReadOnlyStore) LS(ctx context.Context, path string) (*DirListing, error) {
	return r.store.LS(ctx, path)
}

func (r *ReadOnlyStore) List(ctx context.Context, path string, opts ...Option) (*ListingResult, error) {
	return r.store.List(ctx, path, opts...)
}

func (r *ReadOnlyStore) Exists(ctx context.Context, path string, opts ...Option) (bool, error) {
	return r.store.Exists(ctx, path, opts...)
}

func (r *ReadOnlyStore) DownloadFile(ctx context.Context, remote, localPath string, opts ...Option) error {
	return r.store.DownloadFile(ctx, remote, localPath, opts...)
}

func (r *ReadOnlyStore) DownloadDir(ctx context.Context, remote, localDir string, opts ...Option) error {
	return r.store.DownloadDir(ctx, remote, localDir, opts...)
}

// UploadFile returns ErrReadOnly.
func (r *ReadOnlyStore) UploadFile(ctx context.Context, localPath, remote string, opts ...Option) error {
	if err := r.reject("upload", remote); err != nil {
		return err
	}
	return r.store.UploadFile(ctx, localPath, remote, opts...)
}

// UploadDir returns ErrReadOnly.
func (r *ReadOnlyStore) UploadDir(ctx context.Context, localDir, remote string, opts ...Option) error {
	if err := r.reject("upload", remote); err != nil {
		return err
	}
	return r.store.UploadDir(ctx, localDir, remote, opts...)
}

// Delete returns ErrReadOnly unless AllowDelete is set.
func (r *ReadOnlyStore) Delete(ctx context.Context, path string, opts ...Option) error {
	if !r.opts.AllowDelete {
		if err := r.reject("delete", path); err != nil {
			return err
		}
	}
	return r.store.Delete(ctx, path, opts...)
}

// IsReadOnly reports whether err was caused by a write to a read-only store.
func IsReadOnly(err error) bool {
	return errors.Is(err, ErrReadOnly)
}

var (
	_ Store     = (*ReadOnlyStore)(nil)
	_ Environer = (*ReadOnlyStore)(nil)
)
