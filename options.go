package storekit

import (
	"log/slog"
)

// Option represents a per-operation option
type Option func(*Options)

// Options contains all possible options for store operations
type Options struct {
	// Container overrides the container parsed from the address
	Container string

	// Delimiter marks the key hierarchy for listings. Defaults to "/".
	Delimiter string

	// PageSize bounds the number of entries requested per listing call
	PageSize int32

	// MaxItems bounds the total number of entries accumulated by a listing
	MaxItems int

	// SkipFiles drops leaf entries from listings
	SkipFiles bool

	// SkipDirs drops common prefixes from listings
	SkipDirs bool

	// Overwrite determines whether to overwrite existing keys on upload
	Overwrite bool

	// UseBasename appends the source's base name to the destination
	UseBasename bool

	// Encrypt requests server-side encryption where the backend supports it
	Encrypt bool

	// ACL sets a canned access control list where the backend supports it
	ACL string

	// ContentType sets the MIME type of uploaded objects
	ContentType string

	// Metadata contains additional metadata for uploaded objects
	Metadata map[string]string

	// Selector filters the files visited by UploadDir
	Selector Selector
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) *Options {
	o := &Options{Delimiter: Delimiter}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithContainer sets the bucket or blob container explicitly
func WithContainer(container string) Option {
	return func(o *Options) {
		o.Container = container
	}
}

// WithDelimiter sets the listing delimiter. An empty delimiter lists flat.
func WithDelimiter(delimiter string) Option {
	return func(o *Options) {
		o.Delimiter = delimiter
	}
}

// WithPageSize sets the listing page size
func WithPageSize(size int32) Option {
	return func(o *Options) {
		o.PageSize = size
	}
}

// WithMaxItems caps the number of listing entries
func WithMaxItems(n int) Option {
	return func(o *Options) {
		o.MaxItems = n
	}
}

// WithoutFiles omits leaf keys from listings
func WithoutFiles() Option {
	return func(o *Options) {
		o.SkipFiles = true
	}
}

// WithoutDirs omits common prefixes from listings
func WithoutDirs() Option {
	return func(o *Options) {
		o.SkipDirs = true
	}
}

// WithOverwrite sets whether to overwrite existing keys
func WithOverwrite(overwrite bool) Option {
	return func(o *Options) {
		o.Overwrite = overwrite
	}
}

// WithBasename sets whether the source base name is appended to the destination
func WithBasename(use bool) Option {
	return func(o *Options) {
		o.UseBasename = use
	}
}

// WithEncryption requests server-side encryption
func WithEncryption(encrypt bool) Option {
	return func(o *Options) {
		o.Encrypt = encrypt
	}
}

// WithACL sets a canned ACL
func WithACL(acl string) Option {
	return func(o *Options) {
		o.ACL = acl
	}
}

// WithContentType sets the content type of uploaded objects
func WithContentType(contentType string) Option {
	return func(o *Options) {
		o.ContentType = contentType
	}
}

// WithMetadata sets metadata on uploaded objects
func WithMetadata(metadata map[string]string) Option {
	return func(o *Options) {
		o.Metadata = metadata
	}
}

// WithSelector filters the files uploaded by UploadDir
func WithSelector(s Selector) Option {
	return func(o *Options) {
		o.Selector = s
	}
}

// StoreOption configures a store at construction time
type StoreOption func(*StoreOptions)

// StoreOptions carries the ambient collaborators of a store
type StoreOptions struct {
	// Config is consulted when credentials are resolved. Nil loads the
	// environment config on first connect.
	Config *Config

	// Logger receives connection and transfer events
	Logger *slog.Logger
}

// NewStoreOptions applies opts over the defaults.
func NewStoreOptions(opts ...StoreOption) StoreOptions {
	o := StoreOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// WithConfig sets the configuration source used for credential resolution
func WithConfig(cfg *Config) StoreOption {
	return func(o *StoreOptions) {
		o.Config = cfg
	}
}

// WithLogger sets the logger used by the store
func WithLogger(logger *slog.Logger) StoreOption {
	return func(o *StoreOptions) {
		o.Logger = logger
	}
}
