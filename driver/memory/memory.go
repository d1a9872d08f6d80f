// Package memory provides an in-process object store with S3 listing
// semantics. It backs tests and dry runs.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gobeaver/storekit"
)

// DefaultPageSize is the number of entries per listing page when the request
// does not set one.
const DefaultPageSize = 1000

// memoryObject represents an object stored in memory
type memoryObject struct {
	content     []byte
	contentType string
	metadata    map[string]string
	etag        string
	modTime     time.Time
}

// Adapter is an in-memory storekit.ObjectBackend
type Adapter struct {
	mu         sync.RWMutex
	containers map[string]map[string]*memoryObject
	maxSize    int64 // Maximum total storage size (0 = unlimited)
	size       int64 // Current total size

	opsMu sync.Mutex
	ops   []string
}

// Config holds configuration for the memory adapter
type Config struct {
	// MaxSize is the maximum total storage size in bytes (0 = unlimited)
	MaxSize int64
}

// New creates a new in-memory object backend
func New(cfg ...Config) *Adapter {
	var maxSize int64
	if len(cfg) > 0 {
		maxSize = cfg[0].MaxSize
	}
	return &Adapter{
		containers: make(map[string]map[string]*memoryObject),
		maxSize:    maxSize,
	}
}

// NewStore wraps a fresh adapter in a storekit.ObjectStore.
func NewStore(opts ...storekit.StoreOption) *storekit.ObjectStore {
	o := storekit.NewStoreOptions(opts...)
	return storekit.NewObjectStore(New(), o.Logger)
}

func (a *Adapter) Type() storekit.StoreType {
	return storekit.TypeMemory
}

func (a *Adapter) Connect(ctx context.Context) error {
	return ctx.Err()
}

func (a *Adapter) Close() error {
	return nil
}

// record appends an entry to the operation log.
func (a *Adapter) record(op, container, key string) {
	a.opsMu.Lock()
	a.ops = append(a.ops, op+" "+container+"/"+key)
	a.opsMu.Unlock()
}

// Ops returns the mutating operations performed so far, oldest first, as
// "put bucket/key" and "delete bucket/key".
func (a *Adapter) Ops() []string {
	a.opsMu.Lock()
	defer a.opsMu.Unlock()
	return append([]string(nil), a.ops...)
}

// Size returns the total number of bytes stored.
func (a *Adapter) Size() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.size
}

// Keys returns every key of container in lexicographic order.
func (a *Adapter) Keys(container string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make([]string, 0, len(a.containers[container]))
	for k := range a.containers[container] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PutObject stores content directly, bypassing the store's existence checks.
func (a *Adapter) PutObject(container, key string, content []byte) error {
	return a.put(container, key, content, "", nil)
}

func (a *Adapter) put(container, key string, content []byte, contentType string, metadata map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	objects, ok := a.containers[container]
	if !ok {
		objects = make(map[string]*memoryObject)
		a.containers[container] = objects
	}

	var oldSize int64
	if existing, ok := objects[key]; ok {
		oldSize = int64(len(existing.content))
	}
	newSize := a.size - oldSize + int64(len(content))
	if a.maxSize > 0 && newSize > a.maxSize {
		return storekit.NewPathError("put", container+"/"+key, storekit.ErrTransfer, fmt.Errorf("memory store full: %d > %d bytes", newSize, a.maxSize))
	}

	objects[key] = &memoryObject{
		content:     content,
		contentType: contentType,
		metadata:    metadata,
		etag:        strconv.FormatUint(xxhash.Sum64(content), 16),
		modTime:     time.Now(),
	}
	a.size = newSize
	return nil
}

func (a *Adapter) Put(ctx context.Context, container, key string, r io.Reader, opts *storekit.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return storekit.NewPathError("put", container+"/"+key, storekit.ErrTransfer, err)
	}

	var contentType string
	var metadata map[string]string
	if opts != nil {
		contentType = opts.ContentType
		metadata = opts.Metadata
	}
	if err := a.put(container, key, content, contentType, metadata); err != nil {
		return err
	}
	a.record("put", container, key)
	return nil
}

func (a *Adapter) lookup(container, key string) (*memoryObject, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	obj, ok := a.containers[container][key]
	return obj, ok
}

func (a *Adapter) Head(ctx context.Context, container, key string) (*storekit.ObjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	obj, ok := a.lookup(container, key)
	if !ok {
		return nil, &storekit.PathError{Op: "head", Path: container + "/" + key, Err: storekit.ErrNotFound}
	}
	return &storekit.ObjectEntry{Key: key, Size: int64(len(obj.content)), ETag: obj.etag}, nil
}

func (a *Adapter) Get(ctx context.Context, container, key string, w io.WriterAt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	obj, ok := a.lookup(container, key)
	if !ok {
		return &storekit.PathError{Op: "get", Path: container + "/" + key, Err: storekit.ErrNotFound}
	}
	if _, err := w.WriteAt(bytes.Clone(obj.content), 0); err != nil {
		return storekit.NewPathError("get", container+"/"+key, storekit.ErrTransfer, err)
	}
	return nil
}

// DeleteObject removes key. Deleting a missing key succeeds, as it does on S3.
func (a *Adapter) DeleteObject(ctx context.Context, container, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	if obj, ok := a.containers[container][key]; ok {
		a.size -= int64(len(obj.content))
		delete(a.containers[container], key)
	}
	a.mu.Unlock()
	a.record("delete", container, key)
	return nil
}

// ListPage lists keys under req.Prefix in lexicographic order, grouping keys
// that contain req.Delimiter past the prefix into common prefixes. The token
// is the last entry of the previous page.
func (a *Adapter) ListPage(ctx context.Context, req storekit.ListRequest, token string) (*storekit.ObjectPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageSize := int(req.PageSize)
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	page := &storekit.ObjectPage{}
	count := 0
	lastPrefix := ""
	for _, key := range a.Keys(req.Container) {
		if !strings.HasPrefix(key, req.Prefix) {
			continue
		}
		if token != "" {
			if key <= token {
				continue
			}
			if req.Delimiter != "" && strings.HasSuffix(token, req.Delimiter) && strings.HasPrefix(key, token) {
				continue
			}
		}

		entry := key
		isPrefix := false
		if req.Delimiter != "" {
			if i := strings.Index(key[len(req.Prefix):], req.Delimiter); i >= 0 {
				entry = key[:len(req.Prefix)+i+len(req.Delimiter)]
				isPrefix = true
			}
		}
		if isPrefix && entry == lastPrefix {
			continue
		}

		if count == pageSize {
			page.NextToken = token
			return page, nil
		}

		if isPrefix {
			page.Prefixes = append(page.Prefixes, entry)
			lastPrefix = entry
		} else {
			obj, _ := a.lookup(req.Container, key)
			var size int64
			var etag string
			if obj != nil {
				size, etag = int64(len(obj.content)), obj.etag
			}
			page.Objects = append(page.Objects, storekit.ObjectEntry{Key: key, Size: size, ETag: etag})
		}
		token = entry
		count++
	}

	return page, nil
}

var _ storekit.ObjectBackend = (*Adapter)(nil)
