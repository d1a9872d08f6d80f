// Package gcs implements the Google Cloud Storage backend.
package gcs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/gobeaver/storekit"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// DefaultPageSize is requested when the listing does not set a page size.
const DefaultPageSize = 1000

// Adapter is the GCS storekit.ObjectBackend
type Adapter struct {
	mu       sync.Mutex
	explicit Credentials
	cfg      *storekit.Config
	logger   *slog.Logger

	creds  *Credentials
	client *storage.Client
	owned  bool
}

// AdapterOption is a function that configures Adapter
type AdapterOption func(*Adapter)

// WithClient uses an existing client instead of building one on connect.
// The caller keeps ownership of the client.
func WithClient(client *storage.Client) AdapterOption {
	return func(a *Adapter) {
		a.client = client
	}
}

// WithConfig sets the configuration source consulted on connect
func WithConfig(cfg *storekit.Config) AdapterOption {
	return func(a *Adapter) {
		a.cfg = cfg
	}
}

// WithLogger sets the adapter's logger
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New creates a GCS backend. Nothing is resolved or built until Connect.
func New(creds Credentials, options ...AdapterOption) *Adapter {
	adapter := &Adapter{explicit: creds, logger: slog.Default()}
	for _, option := range options {
		option(adapter)
	}
	return adapter
}

// NewStore creates a GCS backed storekit.ObjectStore.
func NewStore(creds Credentials, options ...AdapterOption) *storekit.ObjectStore {
	a := New(creds, options...)
	return storekit.NewObjectStore(a, a.logger)
}

func (a *Adapter) Type() storekit.StoreType {
	return storekit.TypeGCS
}

// resolve returns the resolved credentials. a.mu must be held.
func (a *Adapter) resolve() (*Credentials, error) {
	if a.creds != nil {
		return a.creds, nil
	}
	cfg, err := storekit.ResolveConfig(a.cfg)
	if err != nil {
		return nil, storekit.ConfigError("connect", "gcs", err)
	}
	creds, err := Resolve(a.explicit, cfg)
	if err != nil {
		return nil, storekit.ConfigError("connect", "gcs", err)
	}
	a.creds = &creds
	return a.creds, nil
}

// Environ implements storekit.Environer.
func (a *Adapter) Environ(ctx context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	creds, err := a.resolve()
	if err != nil {
		return nil, err
	}
	return creds.Environ(), nil
}

// Connect resolves credentials and builds the client. It is idempotent.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return nil
	}

	creds, err := a.resolve()
	if err != nil {
		return err
	}

	opts := []option.ClientOption{option.WithScopes(creds.Scopes...)}
	switch creds.Source() {
	case SourceFile:
		opts = append(opts, option.WithCredentialsFile(creds.KeyPath))
	case SourceJSON:
		opts = append(opts, option.WithCredentialsJSON([]byte(creds.KeyJSON)))
	}
	a.logger.Info("connecting to GCS", "credentials", creds.Source().String())

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return storekit.NewPathError("connect", "gcs", storekit.ErrConnection, err)
	}
	a.client = client
	a.owned = true
	return nil
}

// Close closes a client built by Connect.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil || !a.owned {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	a.owned = false
	return err
}

func (a *Adapter) object(container, key string) *storage.ObjectHandle {
	return a.client.Bucket(container).Object(key)
}

// ListPage fetches one page of the object iterator.
func (a *Adapter) ListPage(ctx context.Context, req storekit.ListRequest, token string) (*storekit.ObjectPage, error) {
	pageSize := int(req.PageSize)
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	it := a.client.Bucket(req.Container).Objects(ctx, &storage.Query{
		Prefix:    req.Prefix,
		Delimiter: req.Delimiter,
	})

	var attrs []*storage.ObjectAttrs
	next, err := iterator.NewPager(it, pageSize, token).NextPage(&attrs)
	if err != nil {
		return nil, mapGCSError("list", req.Container+"/"+req.Prefix, err)
	}

	return toPage(attrs, next), nil
}

func toPage(attrs []*storage.ObjectAttrs, next string) *storekit.ObjectPage {
	page := &storekit.ObjectPage{NextToken: next}
	for _, attr := range attrs {
		// Common prefixes come back as attrs with only Prefix set
		if attr.Prefix != "" {
			page.Prefixes = append(page.Prefixes, attr.Prefix)
			continue
		}
		page.Objects = append(page.Objects, storekit.ObjectEntry{
			Key:  attr.Name,
			Size: attr.Size,
			ETag: attr.Etag,
		})
	}
	return page
}

func (a *Adapter) Head(ctx context.Context, container, key string) (*storekit.ObjectEntry, error) {
	attrs, err := a.object(container, key).Attrs(ctx)
	if err != nil {
		return nil, mapGCSError("head", container+"/"+key, err)
	}
	return &storekit.ObjectEntry{Key: key, Size: attrs.Size, ETag: attrs.Etag}, nil
}

func (a *Adapter) Put(ctx context.Context, container, key string, r io.Reader, opts *storekit.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := a.object(container, key).NewWriter(ctx)
	if opts != nil {
		w.ContentType = opts.ContentType
		w.Metadata = opts.Metadata
	}

	if _, err := io.Copy(w, r); err != nil {
		// cancelling the context aborts the upload
		cancel()
		_ = w.Close()
		return storekit.NewPathError("put", container+"/"+key, storekit.ErrTransfer, err)
	}
	if err := w.Close(); err != nil {
		return mapGCSError("put", container+"/"+key, err)
	}
	return nil
}

func (a *Adapter) Get(ctx context.Context, container, key string, w io.WriterAt) error {
	r, err := a.object(container, key).NewReader(ctx)
	if err != nil {
		return mapGCSError("get", container+"/"+key, err)
	}
	defer r.Close()

	if _, err := io.Copy(io.NewOffsetWriter(w, 0), r); err != nil {
		return storekit.NewPathError("get", container+"/"+key, storekit.ErrTransfer, err)
	}
	return nil
}

func (a *Adapter) DeleteObject(ctx context.Context, container, key string) error {
	if err := a.object(container, key).Delete(ctx); err != nil {
		return mapGCSError("delete", container+"/"+key, err)
	}
	return nil
}

// mapGCSError maps GCS errors to storekit errors
func mapGCSError(op, path string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return storekit.NewPathError(op, path, storekit.ErrNotFound, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return storekit.NewPathError(op, path, storekit.ErrTransfer, err)
}

var (
	_ storekit.ObjectBackend = (*Adapter)(nil)
	_ storekit.Environer     = (*Adapter)(nil)
)
