package storekit

import (
	"context"
	"io"
	"io/fs"
	"sort"
)

// Store is the operation surface shared by every backend.
//
// Paths are addresses in the form accepted by ParseAddress. Every operation
// connects first, so calling Connect up front only moves the failure point.
type Store interface {
	// Type reports the backend discriminator.
	Type() StoreType

	// Connect resolves credentials and builds the backend connection. It is
	// idempotent.
	Connect(ctx context.Context) error

	// Close releases the backend connection, if any.
	Close() error

	// LS lists the names directly under path.
	LS(ctx context.Context, path string) (*DirListing, error)

	// List lists the entries under path with sizes.
	List(ctx context.Context, path string, opts ...Option) (*ListingResult, error)

	// Exists reports whether path names an object or file.
	Exists(ctx context.Context, path string, opts ...Option) (bool, error)

	// Delete removes path and, if it is a directory, everything under it.
	Delete(ctx context.Context, path string, opts ...Option) error

	// UploadFile copies a local file to remote.
	UploadFile(ctx context.Context, localPath, remote string, opts ...Option) error

	// UploadDir copies a local tree under remote.
	UploadDir(ctx context.Context, localDir, remote string, opts ...Option) error

	// DownloadFile copies remote to a local file.
	DownloadFile(ctx context.Context, remote, localPath string, opts ...Option) error

	// DownloadDir copies the tree under remote into a local directory.
	DownloadDir(ctx context.Context, remote, localDir string, opts ...Option) error
}

// Environer is implemented by stores and backends that can export their
// resolved credentials as KEY=value pairs for a child process.
type Environer interface {
	Environ(ctx context.Context) ([]string, error)
}

// FileEntry is a leaf entry of a listing, named relative to the listed prefix.
type FileEntry struct {
	Name string
	Size int64
	ETag string
}

// ListingResult holds the files and subdirectories found under a prefix.
type ListingResult struct {
	Files []FileEntry
	Dirs  []string
}

// DirListing is the name-only form of a listing returned by LS.
type DirListing struct {
	Files []string
	Dirs  []string
}

// Names drops sizes from the listing.
func (r *ListingResult) Names() *DirListing {
	l := &DirListing{
		Files: make([]string, 0, len(r.Files)),
		Dirs:  make([]string, 0, len(r.Dirs)),
	}
	for _, f := range r.Files {
		l.Files = append(l.Files, f.Name)
	}
	l.Dirs = append(l.Dirs, r.Dirs...)
	return l
}

// Sort orders both sequences lexicographically in place.
func (l *DirListing) Sort() {
	sort.Strings(l.Files)
	sort.Strings(l.Dirs)
}

// ObjectEntry is a leaf entry of a native listing page, keyed by its full name.
type ObjectEntry struct {
	Key  string
	Size int64
	ETag string
}

// ListRequest describes one native listing call.
type ListRequest struct {
	Container string
	Prefix    string
	Delimiter string
	PageSize  int32
}

// ObjectPage is one page of a flat listing. An empty NextToken marks the
// last page.
type ObjectPage struct {
	Objects   []ObjectEntry
	Prefixes  []string
	NextToken string
}

// ObjectBackend is the native capability set of a flat, paginated object
// store. Implementations return errors matching ErrNotFound for missing keys
// and ErrTransfer for other backend failures.
type ObjectBackend interface {
	Type() StoreType
	Connect(ctx context.Context) error
	Close() error

	// ListPage fetches the page identified by token ("" for the first page).
	ListPage(ctx context.Context, req ListRequest, token string) (*ObjectPage, error)

	// Head returns the metadata of a single key.
	Head(ctx context.Context, container, key string) (*ObjectEntry, error)

	// Put writes r to key.
	Put(ctx context.Context, container, key string, r io.Reader, opts *Options) error

	// Get writes the content of key to w starting at offset 0.
	Get(ctx context.Context, container, key string, w io.WriterAt) error

	// DeleteObject removes a single key.
	DeleteObject(ctx context.Context, container, key string) error
}

// TreeBackend is the native capability set of a hierarchical filesystem.
// Implementations return errors matching fs.ErrNotExist for missing paths.
type TreeBackend interface {
	Type() StoreType
	Connect(ctx context.Context) error
	Close() error

	// ResolvePath maps a parsed address to a native path.
	ResolvePath(addr Address) (string, error)

	// Join joins native path elements.
	Join(elem ...string) string

	ReadDir(dir string) ([]fs.FileInfo, error)
	Stat(p string) (fs.FileInfo, error)
	MkdirAll(dir string) error
	Remove(p string) error
	RemoveDir(p string) error
	Open(p string) (io.ReadCloser, error)
	Create(p string) (io.WriteCloser, error)
}
