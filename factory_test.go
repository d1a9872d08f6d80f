package storekit

import (
	"errors"
	"reflect"
	"testing"
)

// captureStore records the access record a factory was called with.
type captureStore struct {
	Store
	access Access
	opts   StoreOptions
}

const typeCapture StoreType = "capture"

func registerCapture(t *testing.T, storeType StoreType) {
	t.Helper()
	factoryMutex.Lock()
	prev, had := storeFactories[storeType]
	factoryMutex.Unlock()

	RegisterStore(storeType, func(access Access, opts StoreOptions) (Store, error) {
		return &captureStore{access: access, opts: opts}, nil
	})
	t.Cleanup(func() {
		factoryMutex.Lock()
		defer factoryMutex.Unlock()
		if had {
			storeFactories[storeType] = prev
		} else {
			delete(storeFactories, storeType)
		}
	})
}

func TestGetStore(t *testing.T) {
	registerCapture(t, typeCapture)

	_, err := GetStore(StoreType("tape"), nil)
	if !errors.Is(err, ErrUnrecognizedStoreType) {
		t.Errorf("unknown type: %v", err)
	}

	cfg := &Config{AWSRegion: "r"}
	store, err := GetStore(typeCapture, Access{"a": 1}, WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	cs := store.(*captureStore)
	if !reflect.DeepEqual(cs.access, Access{"a": 1}) {
		t.Errorf("access = %v", cs.access)
	}
	if cs.opts.Config != cfg || cs.opts.Logger == nil {
		t.Errorf("options = %+v", cs.opts)
	}

	found := false
	for _, rt := range RegisteredTypes() {
		if rt == typeCapture {
			found = true
		}
	}
	if !found {
		t.Error("RegisteredTypes() missing capture type")
	}
}

func TestGetStoreEmptyTypeIsLocal(t *testing.T) {
	registerCapture(t, TypeLocal)

	store, err := GetStore("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*captureStore); !ok {
		t.Errorf("empty type did not select the local factory: %T", store)
	}

	store, err = GetStoreForPath("/tmp/x", Access{"root": "/tmp"})
	if err != nil {
		t.Fatal(err)
	}
	if got := store.(*captureStore).access; !reflect.DeepEqual(got, Access{"root": "/tmp"}) {
		t.Errorf("access = %v", got)
	}
}

func TestGetStoreForTypeGCS(t *testing.T) {
	registerCapture(t, TypeGCS)
	registerCapture(t, TypeS3)

	secret := Access{"type": "service_account", "project_id": "p"}

	store, err := GetStoreForType(TypeGCS, secret)
	if err != nil {
		t.Fatal(err)
	}
	want := Access{KeyFileDict: map[string]any{"type": "service_account", "project_id": "p"}}
	if got := store.(*captureStore).access; !reflect.DeepEqual(got, want) {
		t.Errorf("gcs access = %v, want %v", got, want)
	}

	store, err = GetStoreForType(TypeS3, secret)
	if err != nil {
		t.Fatal(err)
	}
	if got := store.(*captureStore).access; !reflect.DeepEqual(got, secret) {
		t.Errorf("s3 access = %v, want %v", got, secret)
	}
}

func TestAccessDecode(t *testing.T) {
	var out struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
		TLS  bool   `mapstructure:"tls"`
	}
	if err := (Access{"host": "h", "port": "2222", "tls": "true", "extra": 1}).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Host != "h" || out.Port != 2222 || !out.TLS {
		t.Errorf("decoded = %+v", out)
	}

	if err := (Access{"port": map[string]any{"n": 1}}).Decode(&out); !IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if err := Access(nil).Decode(&out); err != nil {
		t.Errorf("nil access: %v", err)
	}
}
