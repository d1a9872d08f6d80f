package gcs

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobeaver/storekit"
)

// Source identifies where resolved credentials come from.
type Source int

const (
	// SourceDefault uses the ambient application default credentials.
	SourceDefault Source = iota
	// SourceFile reads a service account key file.
	SourceFile
	// SourceJSON uses inline service account key material.
	SourceJSON
)

func (s Source) String() string {
	switch s {
	case SourceFile:
		return "key file"
	case SourceJSON:
		return "inline key"
	default:
		return "default credentials"
	}
}

// Credentials holds the service account material of a GCS store.
//
// KeyFileDict accepts either a decoded JSON object or a JSON string.
type Credentials struct {
	KeyPath     string   `mapstructure:"key_path"`
	KeyJSON     string   `mapstructure:"key_json"`
	KeyFileDict any      `mapstructure:"keyfile_dict"`
	Scopes      []string `mapstructure:"scopes"`

	source Source
}

// Source reports which credential source was resolved.
func (c Credentials) Source() Source {
	return c.source
}

// inline returns the inline key material of c as JSON text.
func (c Credentials) inline() (string, error) {
	if c.KeyJSON != "" {
		return c.KeyJSON, nil
	}
	switch v := c.KeyFileDict.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]any:
		if len(v) == 0 {
			return "", nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("%w: invalid key JSON: %w", storekit.ErrConfiguration, err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: unsupported key material of type %T", storekit.ErrConfiguration, v)
	}
}

// Resolve picks one credential source. A key path ending in .json wins;
// otherwise inline key material is parsed as JSON; a key path with another
// extension is rejected; with neither, default credentials are used.
func Resolve(explicit Credentials, cfg *storekit.Config) (Credentials, error) {
	if cfg == nil {
		cfg = &storekit.Config{}
	}

	keyPath := explicit.KeyPath
	if keyPath == "" {
		keyPath = cfg.GCPKeyFilePath
	}

	inline, err := explicit.inline()
	if err != nil {
		return Credentials{}, err
	}
	if inline == "" {
		inline = cfg.GCPKeyFileDict
	}

	scopes := explicit.Scopes
	if len(scopes) == 0 {
		scopes = cfg.Scopes()
	}

	switch {
	case keyPath != "" && strings.EqualFold(filepath.Ext(keyPath), ".json"):
		return Credentials{KeyPath: keyPath, Scopes: scopes, source: SourceFile}, nil
	case inline != "":
		key, err := parseKey(inline)
		if err != nil {
			return Credentials{}, err
		}
		return Credentials{KeyJSON: key, Scopes: scopes, source: SourceJSON}, nil
	case keyPath != "":
		return Credentials{}, fmt.Errorf("%w: unrecognised extension for key file %q", storekit.ErrConfiguration, keyPath)
	default:
		return Credentials{Scopes: scopes, source: SourceDefault}, nil
	}
}

// parseKey validates inline key JSON and restores escaped newlines in the
// private key.
func parseKey(raw string) (string, error) {
	var key map[string]any
	if err := json.Unmarshal([]byte(raw), &key); err != nil {
		return "", fmt.Errorf("%w: invalid key JSON: %w", storekit.ErrConfiguration, err)
	}
	if pk, ok := key["private_key"].(string); ok {
		key["private_key"] = strings.ReplaceAll(pk, `\n`, "\n")
	}
	data, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("%w: invalid key JSON: %w", storekit.ErrConfiguration, err)
	}
	return string(data), nil
}

// Environ returns the credentials in the variables read by Google client
// libraries. Inline key material has no standard variable and is omitted.
func (c Credentials) Environ() []string {
	var env []string
	if c.KeyPath != "" {
		env = append(env, "GOOGLE_APPLICATION_CREDENTIALS="+c.KeyPath)
	}
	return env
}
