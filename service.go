package storekit

import (
	"fmt"
	"sync"
)

// Global instance
var (
	defaultManager *StoreManager
	defaultOnce    sync.Once
	defaultErr     error
)

// Builder creates managers from environment config carrying a custom prefix
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Init initializes the global manager using the builder's prefix
func (b *Builder) Init(address string) error {
	cfg, err := LoadConfig(b.prefix)
	if err != nil {
		return err
	}
	return Init(address, cfg)
}

// New creates a manager for address using the builder's prefix
func (b *Builder) New(address string, access Access) (*StoreManager, error) {
	cfg, err := LoadConfig(b.prefix)
	if err != nil {
		return nil, err
	}
	return New(cfg, address, access)
}

// New creates a manager whose store is picked by the scheme of address and
// whose base path is address itself. A nil cfg loads the environment config
// when the store connects.
func New(cfg *Config, address string, access Access, opts ...ManagerOption) (*StoreManager, error) {
	store, err := GetStoreForType(StoreTypeFromPath(address), access, WithConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	return NewManager(store, append([]ManagerOption{WithBasePath(address)}, opts...)...)
}

// Init initializes the global manager for address. Only the first call has
// any effect until Reset.
func Init(address string, configs ...*Config) error {
	defaultOnce.Do(func() {
		var cfg *Config
		if len(configs) > 0 {
			cfg = configs[0]
		} else {
			cfg, defaultErr = GetConfig()
			if defaultErr != nil {
				return
			}
		}

		defaultManager, defaultErr = New(cfg, address, nil)
	})

	return defaultErr
}

// Default returns the global manager, or an error if Init has not succeeded
func Default() (*StoreManager, error) {
	if defaultErr != nil {
		return nil, defaultErr
	}
	if defaultManager == nil {
		return nil, fmt.Errorf("%w: storekit.Init has not been called", ErrConfiguration)
	}
	return defaultManager, nil
}

// Reset resets the global instance (for testing)
func Reset() {
	defaultManager = nil
	defaultOnce = sync.Once{}
	defaultErr = nil
}
