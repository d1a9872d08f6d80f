package storekit

import (
	"fmt"
	"path/filepath"
	"strings"
)

// StoreType discriminates between storage backends.
type StoreType string

const (
	TypeLocal  StoreType = "local"
	TypeS3     StoreType = "s3"
	TypeGCS    StoreType = "gcs"
	TypeAzure  StoreType = "azure-blob"
	TypeSFTP   StoreType = "sftp"
	TypeMemory StoreType = "memory"
)

// Delimiter is the hierarchy separator used by every backend.
const Delimiter = "/"

var schemeTypes = map[string]StoreType{
	"s3":    TypeS3,
	"gs":    TypeGCS,
	"wasbs": TypeAzure,
	"sftp":  TypeSFTP,
	"mem":   TypeMemory,
}

var typeAliases = map[string]StoreType{
	"":              TypeLocal,
	"local":         TypeLocal,
	"s3":            TypeS3,
	"gcs":           TypeGCS,
	"gs":            TypeGCS,
	"gcp":           TypeGCS,
	"azure-blob":    TypeAzure,
	"azure-storage": TypeAzure,
	"azure":         TypeAzure,
	"wasbs":         TypeAzure,
	"sftp":          TypeSFTP,
	"memory":        TypeMemory,
	"mem":           TypeMemory,
}

// ParseStoreType maps a store discriminator, or one of its aliases, to a
// StoreType. The empty string selects the local backend.
func ParseStoreType(s string) (StoreType, error) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedStoreType, s)
	}
	return t, nil
}

// Scheme returns the URL scheme used to address objects of this type, or ""
// for the local backend.
func (t StoreType) Scheme() string {
	for scheme, st := range schemeTypes {
		if st == t {
			return scheme
		}
	}
	return ""
}

// Address is a parsed storage address.
//
// Container is empty only for the local backend. Key may be empty, in which
// case it denotes the container root.
type Address struct {
	Type      StoreType
	Container string
	Key       string
}

// ParseAddress splits a backend-qualified address into its container and key.
//
//	s3://bucket/key
//	gs://bucket/key
//	wasbs://container/key
//	sftp://host/path
//	mem://bucket/key
//
// Anything without a recognized scheme is a local path and is returned
// verbatim in Key.
func ParseAddress(s string) (Address, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return Address{Type: TypeLocal, Key: s}, nil
	}
	t, known := schemeTypes[strings.ToLower(scheme)]
	if !known {
		return Address{Type: TypeLocal, Key: s}, nil
	}

	container, key, _ := strings.Cut(rest, "/")
	if container == "" {
		return Address{}, &PathError{Op: "parse", Path: s, Err: fmt.Errorf("%w: missing container", ErrInvalidAddress)}
	}

	return Address{
		Type:      t,
		Container: container,
		Key:       strings.TrimLeft(key, "/"),
	}, nil
}

// String rebuilds the address in URL form.
func (a Address) String() string {
	if a.Type == TypeLocal || a.Type == "" {
		return a.Key
	}
	return a.Type.Scheme() + "://" + a.Container + "/" + a.Key
}

// StoreTypeFromPath picks a backend from the scheme of an address without
// touching the network.
func StoreTypeFromPath(address string) StoreType {
	scheme, _, ok := strings.Cut(address, "://")
	if !ok {
		return TypeLocal
	}
	if t, known := schemeTypes[strings.ToLower(scheme)]; known {
		return t
	}
	return TypeLocal
}

// NormalizePrefix appends delimiter to prefix unless prefix is empty or
// already ends with it.
func NormalizePrefix(prefix, delimiter string) string {
	if prefix == "" || strings.HasSuffix(prefix, delimiter) {
		return prefix
	}
	return prefix + delimiter
}

// JoinKey joins key segments with "/", ignoring empty segments. Segments are
// not cleaned, so keys containing "." or repeated slashes survive intact.
func JoinKey(elem ...string) string {
	var key string
	for _, e := range elem {
		if e == "" {
			continue
		}
		if key == "" {
			key = e
			continue
		}
		key = NormalizePrefix(key, Delimiter) + strings.TrimLeft(e, Delimiter)
	}
	return key
}

// BaseName returns the last element of a slash or OS separated path,
// ignoring trailing separators.
func BaseName(p string) string {
	p = strings.TrimRight(p, "/"+string(filepath.Separator))
	if p == "" {
		return ""
	}
	if i := strings.LastIndexAny(p, "/"+string(filepath.Separator)); i >= 0 {
		return p[i+1:]
	}
	return p
}

// AppendBasename joins the base name of name onto the local directory dir.
func AppendBasename(dir, name string) string {
	return filepath.Join(dir, BaseName(name))
}

// JoinPath resolves p against base the way StoreManager does: URL bases are
// joined with "/", absolute local paths and fully qualified addresses are
// returned unchanged.
func JoinPath(base, p string) string {
	if base == "" {
		return p
	}
	if strings.Contains(p, "://") {
		return p
	}
	if !strings.Contains(base, "://") && filepath.IsAbs(p) {
		return p
	}
	if p == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}
