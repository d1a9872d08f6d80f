package storekit

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ObjectStore implements Store on top of a flat, paginated ObjectBackend.
// Directories are emulated with key prefixes and the "/" delimiter.
type ObjectStore struct {
	backend ObjectBackend
	logger  *slog.Logger
}

// NewObjectStore wraps backend. A nil logger uses slog.Default().
func NewObjectStore(backend ObjectBackend, logger *slog.Logger) *ObjectStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ObjectStore{backend: backend, logger: logger}
}

// Backend returns the native backend.
func (s *ObjectStore) Backend() ObjectBackend {
	return s.backend
}

func (s *ObjectStore) Type() StoreType {
	return s.backend.Type()
}

func (s *ObjectStore) Connect(ctx context.Context) error {
	return s.backend.Connect(ctx)
}

func (s *ObjectStore) Close() error {
	return s.backend.Close()
}

// Environ exports the backend credentials when the backend supports it.
func (s *ObjectStore) Environ(ctx context.Context) ([]string, error) {
	if e, ok := s.backend.(Environer); ok {
		return e.Environ(ctx)
	}
	return nil, nil
}

// locate parses p and applies the container override.
func (s *ObjectStore) locate(op, p string, o *Options) (Address, error) {
	if o.Container != "" {
		addr, err := ParseAddress(p)
		if err != nil || addr.Type == TypeLocal {
			return Address{Type: s.Type(), Container: o.Container, Key: strings.TrimLeft(p, "/")}, nil
		}
		addr.Container = o.Container
		return addr, nil
	}

	addr, err := ParseAddress(p)
	if err != nil {
		return Address{}, err
	}
	if addr.Type != s.Type() {
		return Address{}, &PathError{
			Op:   op,
			Path: p,
			Err:  fmt.Errorf("%w: not a %s address", ErrInvalidAddress, s.Type()),
		}
	}
	return addr, nil
}

// prepare connects and resolves the address of an operation.
func (s *ObjectStore) prepare(ctx context.Context, op, p string, o *Options) (Address, error) {
	if err := ctx.Err(); err != nil {
		return Address{}, err
	}
	addr, err := s.locate(op, p, o)
	if err != nil {
		return Address{}, err
	}
	if err := s.backend.Connect(ctx); err != nil {
		return Address{}, err
	}
	return addr, nil
}

func (s *ObjectStore) List(ctx context.Context, path string, opts ...Option) (*ListingResult, error) {
	o := NewOptions(opts...)
	addr, err := s.prepare(ctx, "list", path, o)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, addr.Container, addr.Key, o)
}

// list pages through the native listing under prefix, stripping the prefix
// from every name and the trailing delimiter from every common prefix.
func (s *ObjectStore) list(ctx context.Context, container, prefix string, o *Options) (*ListingResult, error) {
	prefix = NormalizePrefix(prefix, o.Delimiter)
	req := ListRequest{
		Container: container,
		Prefix:    prefix,
		Delimiter: o.Delimiter,
		PageSize:  o.PageSize,
	}

	result := &ListingResult{Files: []FileEntry{}, Dirs: []string{}}
	full := func() bool {
		return o.MaxItems > 0 && len(result.Files)+len(result.Dirs) >= o.MaxItems
	}

	token := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := s.backend.ListPage(ctx, req, token)
		if err != nil {
			return nil, err
		}

		if !o.SkipFiles {
			for _, obj := range page.Objects {
				if full() {
					break
				}
				// the directory marker object
				if obj.Key == prefix {
					continue
				}
				result.Files = append(result.Files, FileEntry{
					Name: strings.TrimPrefix(obj.Key, prefix),
					Size: obj.Size,
					ETag: obj.ETag,
				})
			}
		}

		if !o.SkipDirs {
			for _, p := range page.Prefixes {
				if full() {
					break
				}
				name := strings.TrimPrefix(p, prefix)
				if o.Delimiter != "" {
					name = strings.TrimSuffix(name, o.Delimiter)
				}
				result.Dirs = append(result.Dirs, name)
			}
		}

		if page.NextToken == "" || full() {
			break
		}
		token = page.NextToken
	}

	return result, nil
}

func (s *ObjectStore) LS(ctx context.Context, path string) (*DirListing, error) {
	result, err := s.List(ctx, path, WithDelimiter(Delimiter))
	if err != nil {
		return nil, err
	}
	return result.Names(), nil
}

// ListKeys lists the leaf keys under path.
func (s *ObjectStore) ListKeys(ctx context.Context, path string, opts ...Option) ([]FileEntry, error) {
	result, err := s.List(ctx, path, append(opts, WithoutDirs())...)
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}

// ListPrefixes lists the common prefixes under path.
func (s *ObjectStore) ListPrefixes(ctx context.Context, path string, opts ...Option) ([]string, error) {
	result, err := s.List(ctx, path, append(opts, WithoutFiles())...)
	if err != nil {
		return nil, err
	}
	return result.Dirs, nil
}

func (s *ObjectStore) Exists(ctx context.Context, path string, opts ...Option) (bool, error) {
	o := NewOptions(opts...)
	addr, err := s.prepare(ctx, "exists", path, o)
	if err != nil {
		return false, err
	}
	return s.exists(ctx, addr.Container, addr.Key)
}

func (s *ObjectStore) exists(ctx context.Context, container, key string) (bool, error) {
	_, err := s.backend.Head(ctx, container, key)
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// ReadKey returns the content of a single object.
func (s *ObjectStore) ReadKey(ctx context.Context, path string, opts ...Option) ([]byte, error) {
	o := NewOptions(opts...)
	addr, err := s.prepare(ctx, "read", path, o)
	if err != nil {
		return nil, err
	}
	buf := &writeAtBuffer{}
	if err := s.backend.Get(ctx, addr.Container, addr.Key, buf); err != nil {
		return nil, err
	}
	buf.mu.Lock()
	defer buf.mu.Unlock()
	return buf.buf, nil
}

// UploadBytes writes data to remote.
func (s *ObjectStore) UploadBytes(ctx context.Context, data []byte, remote string, opts ...Option) error {
	o := NewOptions(opts...)
	addr, err := s.prepare(ctx, "upload", remote, o)
	if err != nil {
		return err
	}
	if err := s.checkOverwrite(ctx, addr.Container, addr.Key, o); err != nil {
		return err
	}
	return s.backend.Put(ctx, addr.Container, addr.Key, bytes.NewReader(data), o)
}

// UploadString writes a string to remote.
func (s *ObjectStore) UploadString(ctx context.Context, data, remote string, opts ...Option) error {
	return s.UploadBytes(ctx, []byte(data), remote, opts...)
}

func (s *ObjectStore) UploadFile(ctx context.Context, localPath, remote string, opts ...Option) error {
	o := NewOptions(opts...)
	addr, err := s.prepare(ctx, "upload", remote, o)
	if err != nil {
		return err
	}

	key := addr.Key
	if o.UseBasename {
		key = JoinKey(key, filepath.Base(localPath))
	}
	return s.putFile(ctx, localPath, addr.Container, key, o)
}

// checkOverwrite probes for key unless overwriting. The probe and the write
// that follows are separate calls; a concurrent writer can slip in between.
func (s *ObjectStore) checkOverwrite(ctx context.Context, container, key string, o *Options) error {
	if o.Overwrite {
		return nil
	}
	exists, err := s.exists(ctx, container, key)
	if err != nil {
		return err
	}
	if exists {
		return &PathError{Op: "upload", Path: key, Err: ErrObjectExists}
	}
	return nil
}

func (s *ObjectStore) putFile(ctx context.Context, localPath, container, key string, o *Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOverwrite(ctx, container, key, o); err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return NewPathError("upload", localPath, ErrInvalidPath, err)
	}
	defer f.Close()

	if err := s.backend.Put(ctx, container, key, f, o); err != nil {
		return err
	}
	s.logger.Debug("uploaded file", "store", s.Type(), "container", container, "key", key, "local", localPath)
	return nil
}

func (s *ObjectStore) UploadDir(ctx context.Context, localDir, remote string, opts ...Option) error {
	o := NewOptions(opts...)
	addr, err := s.prepare(ctx, "upload", remote, o)
	if err != nil {
		return err
	}

	prefix := addr.Key
	if o.UseBasename {
		prefix = JoinKey(prefix, BaseName(localDir))
	}

	return WalkFiles(ctx, localDir, o.Selector, func(rel string, _ fs.FileInfo) error {
		return s.putFile(ctx, filepath.Join(localDir, filepath.FromSlash(rel)), addr.Container, JoinKey(prefix, rel), o)
	})
}

func (s *ObjectStore) DownloadFile(ctx context.Context, remote, localPath string, opts ...Option) error {
	o := NewOptions(opts...)
	addr, err := s.prepare(ctx, "download", remote, o)
	if err != nil {
		return err
	}

	if o.UseBasename {
		localPath = AppendBasename(localPath, addr.Key)
	}
	return s.getFile(ctx, addr.Container, addr.Key, localPath)
}

func (s *ObjectStore) getFile(ctx context.Context, container, key, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := checkParentDir("download", localPath)
	if err != nil {
		return err
	}

	f, err := os.Create(abs)
	if err != nil {
		return NewPathError("download", localPath, ErrInvalidPath, err)
	}
	if err := s.backend.Get(ctx, container, key, f); err != nil {
		f.Close()
		os.Remove(abs)
		return err
	}
	if err := f.Close(); err != nil {
		return NewPathError("download", localPath, ErrTransfer, err)
	}
	s.logger.Debug("downloaded file", "store", s.Type(), "container", container, "key", key, "local", abs)
	return nil
}

type downloadJob struct {
	key   string
	local string
}

// DownloadDir mirrors the tree under remote into localDir. Existing local
// files are overwritten.
func (s *ObjectStore) DownloadDir(ctx context.Context, remote, localDir string, opts ...Option) error {
	o := NewOptions(opts...)
	addr, err := s.prepare(ctx, "download", remote, o)
	if err != nil {
		return err
	}

	if o.UseBasename {
		localDir = AppendBasename(localDir, addr.Key)
	}

	listOpts := &Options{Delimiter: Delimiter}
	stack := []downloadJob{{key: addr.Key, local: localDir}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		job := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := os.MkdirAll(job.local, 0o755); err != nil {
			return NewPathError("download", job.local, ErrInvalidPath, err)
		}

		result, err := s.list(ctx, addr.Container, job.key, listOpts)
		if err != nil {
			return err
		}

		for _, f := range result.Files {
			local, err := localChild("download", job.local, f.Name)
			if err != nil {
				return err
			}
			if err := s.getFile(ctx, addr.Container, JoinKey(job.key, f.Name), local); err != nil {
				return err
			}
		}

		dirs := append([]string(nil), result.Dirs...)
		sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
		for _, d := range dirs {
			local, err := localChild("download", job.local, d)
			if err != nil {
				return err
			}
			stack = append(stack, downloadJob{key: JoinKey(job.key, d), local: local})
		}
	}

	return nil
}

// Delete removes path. A key with nothing below it is deleted as a single
// object; otherwise everything below it is deleted.
func (s *ObjectStore) Delete(ctx context.Context, path string, opts ...Option) error {
	o := NewOptions(opts...)
	addr, err := s.prepare(ctx, "delete", path, o)
	if err != nil {
		return err
	}

	listOpts := &Options{Delimiter: Delimiter}
	stack := []string{addr.Key}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		result, err := s.list(ctx, addr.Container, key, listOpts)
		if err != nil {
			return err
		}

		if len(result.Files) == 0 && len(result.Dirs) == 0 {
			if err := s.deleteObject(ctx, addr.Container, key); err != nil {
				return err
			}
			continue
		}

		for _, f := range result.Files {
			if err := s.deleteObject(ctx, addr.Container, JoinKey(key, f.Name)); err != nil {
				return err
			}
		}
		for _, d := range result.Dirs {
			stack = append(stack, JoinKey(key, d))
		}
	}

	return nil
}

// DeleteFile removes a single object without listing.
func (s *ObjectStore) DeleteFile(ctx context.Context, path string, opts ...Option) error {
	o := NewOptions(opts...)
	addr, err := s.prepare(ctx, "delete", path, o)
	if err != nil {
		return err
	}
	return s.deleteObject(ctx, addr.Container, addr.Key)
}

func (s *ObjectStore) deleteObject(ctx context.Context, container, key string) error {
	if err := s.backend.DeleteObject(ctx, container, key); err != nil {
		return err
	}
	s.logger.Debug("deleted object", "store", s.Type(), "container", container, "key", key)
	return nil
}

// writeAtBuffer is an in-memory io.WriterAt. Backends may write parts from
// several goroutines at once.
type writeAtBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *writeAtBuffer) WriteAt(p []byte, off int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	end := int(off) + len(p)
	if end > len(b.buf) {
		if end > cap(b.buf) {
			grown := make([]byte, end, end*2)
			copy(grown, b.buf)
			b.buf = grown
		} else {
			b.buf = b.buf[:end]
		}
	}
	copy(b.buf[off:], p)
	return len(p), nil
}

var _ Store = (*ObjectStore)(nil)
