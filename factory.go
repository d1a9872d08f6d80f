package storekit

import (
	"fmt"
	"sync"
)

// StoreFactory creates a Store from an access record
type StoreFactory func(access Access, opts StoreOptions) (Store, error)

var (
	storeFactories = make(map[StoreType]StoreFactory)
	factoryMutex   sync.RWMutex
)

// RegisterStore registers a store factory function
func RegisterStore(storeType StoreType, factory StoreFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	storeFactories[storeType] = factory
}

// RegisteredTypes returns the store types with a registered factory.
func RegisteredTypes() []StoreType {
	factoryMutex.RLock()
	defer factoryMutex.RUnlock()
	types := make([]StoreType, 0, len(storeFactories))
	for t := range storeFactories {
		types = append(types, t)
	}
	return types
}

// GetStore creates a store of the given type. The empty type selects the
// local backend.
func GetStore(storeType StoreType, access Access, opts ...StoreOption) (Store, error) {
	if storeType == "" {
		storeType = TypeLocal
	}

	factoryMutex.RLock()
	factory, exists := storeFactories[storeType]
	factoryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q not registered", ErrUnrecognizedStoreType, storeType)
	}

	return factory(access, NewStoreOptions(opts...))
}

// GetStoreForPath creates a store for the scheme of address.
func GetStoreForPath(address string, access Access, opts ...StoreOption) (Store, error) {
	return GetStore(StoreTypeFromPath(address), access, opts...)
}

// GetStoreForType creates a store from a generic access record, adapting it
// to the shape each backend expects. The GCS backend always receives the
// record as inline key material.
func GetStoreForType(storeType StoreType, access Access, opts ...StoreOption) (Store, error) {
	if storeType == TypeGCS {
		access = Access{KeyFileDict: map[string]any(access)}
	}
	return GetStore(storeType, access, opts...)
}
