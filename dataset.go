package storekit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DatasetCredentials is the content of a mounted dataset credential file.
type DatasetCredentials struct {
	Store  string `json:"store"`
	Secret Access `json:"secret"`
	Bucket string `json:"bucket"`
}

// ReadDatasetCredentials reads <cfg.DatasetAuthMountPath>/<id>.json.
func ReadDatasetCredentials(cfg *Config, id string) (*DatasetCredentials, error) {
	cfg, err := ResolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	if id == "" || filepath.Base(id) != id {
		return nil, &PathError{Op: "dataset", Path: id, Err: fmt.Errorf("%w: invalid dataset id", ErrConfiguration)}
	}

	p := filepath.Join(cfg.DatasetAuthMountPath, id+".json")
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, NewPathError("dataset", p, ErrConfiguration, err)
	}

	var creds DatasetCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, NewPathError("dataset", p, ErrConfiguration, err)
	}
	return &creds, nil
}

// ManagerForDataset builds a manager from the mounted credential file of a
// dataset. The manager's base path is the file's bucket.
func ManagerForDataset(cfg *Config, id string, opts ...ManagerOption) (*StoreManager, error) {
	creds, err := ReadDatasetCredentials(cfg, id)
	if err != nil {
		return nil, err
	}

	storeType, err := ParseStoreType(creds.Store)
	if err != nil {
		return nil, err
	}

	store, err := GetStoreForType(storeType, creds.Secret, WithConfig(cfg))
	if err != nil {
		return nil, err
	}

	return NewManager(store, append([]ManagerOption{WithBasePath(creds.Bucket)}, opts...)...)
}
