package s3

import (
	"github.com/gobeaver/storekit"
)

func init() {
	storekit.RegisterStore(storekit.TypeS3, createS3Store)
}

func createS3Store(access storekit.Access, opts storekit.StoreOptions) (storekit.Store, error) {
	var creds Credentials
	if err := access.Decode(&creds); err != nil {
		return nil, err
	}
	return NewStore(creds, WithConfig(opts.Config), WithLogger(opts.Logger)), nil
}
