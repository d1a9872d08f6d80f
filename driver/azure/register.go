package azure

import (
	"github.com/gobeaver/storekit"
)

func init() {
	storekit.RegisterStore(storekit.TypeAzure, func(access storekit.Access, opts storekit.StoreOptions) (storekit.Store, error) {
		var creds Credentials
		if err := access.Decode(&creds); err != nil {
			return nil, err
		}
		return NewStore(creds, WithConfig(opts.Config), WithLogger(opts.Logger)), nil
	})
}
