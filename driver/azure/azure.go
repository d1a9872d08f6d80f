// Package azure implements the Azure Blob Storage backend.
package azure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/gobeaver/storekit"
)

// Adapter is the Azure Blob storekit.ObjectBackend
type Adapter struct {
	mu       sync.Mutex
	explicit Credentials
	cfg      *storekit.Config
	logger   *slog.Logger

	creds  *Credentials
	client *azblob.Client
}

// AdapterOption is a function that configures Adapter
type AdapterOption func(*Adapter)

// WithClient uses an existing client instead of building one on connect
func WithClient(client *azblob.Client) AdapterOption {
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

// New creates an Azure Blob backend. Nothing is resolved or built until Connect.
func New(creds Credentials, options ...AdapterOption) *Adapter {
	adapter := &Adapter{explicit: creds, logger: slog.Default()}
	for _, option := range options {
		option(adapter)
	}
	return adapter
}

// NewStore creates an Azure Blob backed storekit.ObjectStore.
func NewStore(creds Credentials, options ...AdapterOption) *storekit.ObjectStore {
	a := New(creds, options...)
	return storekit.NewObjectStore(a, a.logger)
}

func (a *Adapter) Type() storekit.StoreType {
	return storekit.TypeAzure
}

// resolve returns the resolved credentials. a.mu must be held.
func (a *Adapter) resolve() (*Credentials, error) {
	if a.creds != nil {
		return a.creds, nil
	}
	cfg, err := storekit.ResolveConfig(a.cfg)
	if err != nil {
		return nil, storekit.ConfigError("connect", "azure", err)
	}
	creds, err := Resolve(a.explicit, cfg)
	if err != nil {
		return nil, storekit.ConfigError("connect", "azure", err)
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

	var client *azblob.Client
	if creds.ConnectionString != "" {
		a.logger.Info("connecting to Azure Blob", "credentials", "connection string")
		client, err = azblob.NewClientFromConnectionString(creds.ConnectionString, nil)
	} else {
		a.logger.Info("connecting to Azure Blob", "account", creds.AccountName)
		var cred *azblob.SharedKeyCredential
		cred, err = azblob.NewSharedKeyCredential(creds.AccountName, creds.AccountKey)
		if err == nil {
			client, err = azblob.NewClientWithSharedKeyCredential(creds.ServiceURL(), cred, nil)
		}
	}
	if err != nil {
		return storekit.ConfigError("connect", "azure", err)
	}
	a.client = client
	return nil
}

// Close is a no-op.
func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) containerClient(name string) *container.Client {
	return a.client.ServiceClient().NewContainerClient(name)
}

// ListPage fetches one page of blobs. An empty delimiter lists flat.
func (a *Adapter) ListPage(ctx context.Context, req storekit.ListRequest, token string) (*storekit.ObjectPage, error) {
	var marker, prefix *string
	if token != "" {
		marker = &token
	}
	if req.Prefix != "" {
		prefix = &req.Prefix
	}
	var maxResults *int32
	if req.PageSize > 0 {
		maxResults = &req.PageSize
	}

	cc := a.containerClient(req.Container)
	if req.Delimiter == "" {
		pager := cc.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{
			Prefix:     prefix,
			Marker:     marker,
			MaxResults: maxResults,
		})
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapAzureError("list", req.Container+"/"+req.Prefix, err)
		}
		return toPage(resp.Segment.BlobItems, nil, resp.NextMarker), nil
	}

	pager := cc.NewListBlobsHierarchyPager(req.Delimiter, &container.ListBlobsHierarchyOptions{
		Prefix:     prefix,
		Marker:     marker,
		MaxResults: maxResults,
	})
	resp, err := pager.NextPage(ctx)
	if err != nil {
		return nil, mapAzureError("list", req.Container+"/"+req.Prefix, err)
	}
	return toPage(resp.Segment.BlobItems, resp.Segment.BlobPrefixes, resp.NextMarker), nil
}

func toPage(items []*container.BlobItem, prefixes []*container.BlobPrefix, next *string) *storekit.ObjectPage {
	page := &storekit.ObjectPage{}
	if next != nil {
		page.NextToken = *next
	}
	for _, item := range items {
		if item == nil || item.Name == nil {
			continue
		}
		entry := storekit.ObjectEntry{Key: *item.Name}
		if props := item.Properties; props != nil {
			if props.ContentLength != nil {
				entry.Size = *props.ContentLength
			}
			if props.ETag != nil {
				entry.ETag = string(*props.ETag)
			}
		}
		page.Objects = append(page.Objects, entry)
	}
	for _, p := range prefixes {
		if p != nil && p.Name != nil {
			page.Prefixes = append(page.Prefixes, *p.Name)
		}
	}
	return page
}

func (a *Adapter) Head(ctx context.Context, containerName, key string) (*storekit.ObjectEntry, error) {
	props, err := a.containerClient(containerName).NewBlobClient(key).GetProperties(ctx, nil)
	if err != nil {
		return nil, mapAzureError("head", containerName+"/"+key, err)
	}
	entry := &storekit.ObjectEntry{Key: key}
	if props.ContentLength != nil {
		entry.Size = *props.ContentLength
	}
	if props.ETag != nil {
		entry.ETag = string(*props.ETag)
	}
	return entry, nil
}

func (a *Adapter) Put(ctx context.Context, containerName, key string, r io.Reader, opts *storekit.Options) error {
	uploadOpts := &azblob.UploadStreamOptions{}
	if opts != nil {
		if opts.ContentType != "" {
			contentType := opts.ContentType
			uploadOpts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
		}
		if len(opts.Metadata) > 0 {
			metadata := make(map[string]*string, len(opts.Metadata))
			for k, v := range opts.Metadata {
				val := v
				metadata[k] = &val
			}
			uploadOpts.Metadata = metadata
		}
	}

	if _, err := a.client.UploadStream(ctx, containerName, key, r, uploadOpts); err != nil {
		return mapAzureError("put", containerName+"/"+key, err)
	}
	return nil
}

func (a *Adapter) Get(ctx context.Context, containerName, key string, w io.WriterAt) error {
	resp, err := a.client.DownloadStream(ctx, containerName, key, nil)
	if err != nil {
		return mapAzureError("get", containerName+"/"+key, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.NewOffsetWriter(w, 0), resp.Body); err != nil {
		return storekit.NewPathError("get", containerName+"/"+key, storekit.ErrTransfer, err)
	}
	return nil
}

func (a *Adapter) DeleteObject(ctx context.Context, containerName, key string) error {
	if _, err := a.client.DeleteBlob(ctx, containerName, key, nil); err != nil {
		return mapAzureError("delete", containerName+"/"+key, err)
	}
	return nil
}

// mapAzureError maps Azure errors to storekit errors
func mapAzureError(op, path string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return storekit.NewPathError(op, path, storekit.ErrNotFound, err)
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
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
