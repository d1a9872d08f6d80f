package memory

import "github.com/gobeaver/storekit"

func init() {
	storekit.RegisterStore(storekit.TypeMemory, func(_ storekit.Access, opts storekit.StoreOptions) (storekit.Store, error) {
		return storekit.NewObjectStore(New(), opts.Logger), nil
	})
}
