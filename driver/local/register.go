package local

import "github.com/gobeaver/storekit"

func init() {
	storekit.RegisterStore(storekit.TypeLocal, func(access storekit.Access, opts storekit.StoreOptions) (storekit.Store, error) {
		var params struct {
			Root string `mapstructure:"root"`
		}
		if err := access.Decode(&params); err != nil {
			return nil, err
		}
		a, err := New(WithRoot(params.Root))
		if err != nil {
			return nil, storekit.ConfigError("connect", params.Root, err)
		}
		return storekit.NewTreeStore(a, opts.Logger), nil
	})
}
