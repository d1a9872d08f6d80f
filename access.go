package storekit

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// KeyFileDict is the access field carrying inline GCS key material.
const KeyFileDict = "keyfile_dict"

// Access is a generic record of backend access fields, as found in mounted
// dataset credential files or passed by callers of GetStoreForType.
type Access map[string]any

// Decode copies the record into out, a pointer to a struct whose fields carry
// `mapstructure` tags. Values are converted weakly, so "22" fills an int and
// "true" fills a bool.
func (a Access) Decode(out any) error {
	if len(a) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(a)); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}
