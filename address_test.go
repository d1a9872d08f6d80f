package storekit

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    Address
		wantErr bool
	}{
		{in: "s3://bucket/a/b.txt", want: Address{Type: TypeS3, Container: "bucket", Key: "a/b.txt"}},
		{in: "gs://bucket", want: Address{Type: TypeGCS, Container: "bucket"}},
		{in: "gs://bucket/", want: Address{Type: TypeGCS, Container: "bucket"}},
		{in: "wasbs://container//x", want: Address{Type: TypeAzure, Container: "container", Key: "x"}},
		{in: "sftp://host/home/u", want: Address{Type: TypeSFTP, Container: "host", Key: "home/u"}},
		{in: "mem://b/k", want: Address{Type: TypeMemory, Container: "b", Key: "k"}},
		{in: "S3://bucket/k", want: Address{Type: TypeS3, Container: "bucket", Key: "k"}},
		{in: "/tmp/data", want: Address{Type: TypeLocal, Key: "/tmp/data"}},
		{in: "relative/dir", want: Address{Type: TypeLocal, Key: "relative/dir"}},
		{in: "ftp://host/x", want: Address{Type: TypeLocal, Key: "ftp://host/x"}},
		{in: "s3://", wantErr: true},
		{in: "gs:///key", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Errorf("ParseAddress(%q) error = %v, want ErrInvalidAddress", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAddress(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddressRoundTrip(t *testing.T) {
	for _, in := range []string{"s3://b/k/x", "gs://b/k", "wasbs://c/", "sftp://h/p", "mem://b/k", "/local/p"} {
		addr, err := ParseAddress(in)
		if err != nil {
			t.Fatalf("ParseAddress(%q) error = %v", in, err)
		}
		again, err := ParseAddress(addr.String())
		if err != nil || again != addr {
			t.Errorf("round trip of %q: %+v -> %q -> %+v (%v)", in, addr, addr.String(), again, err)
		}
	}
}

func TestParseStoreType(t *testing.T) {
	tests := map[string]StoreType{
		"":              TypeLocal,
		"local":         TypeLocal,
		"S3":            TypeS3,
		"gcs":           TypeGCS,
		"gs":            TypeGCS,
		"azure-storage": TypeAzure,
		"azure-blob":    TypeAzure,
		" sftp ":        TypeSFTP,
		"memory":        TypeMemory,
	}
	for in, want := range tests {
		got, err := ParseStoreType(in)
		if err != nil || got != want {
			t.Errorf("ParseStoreType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseStoreType("ftp"); !errors.Is(err, ErrUnrecognizedStoreType) {
		t.Errorf("ParseStoreType(ftp) error = %v", err)
	}
}

func TestStoreTypeFromPath(t *testing.T) {
	tests := map[string]StoreType{
		"s3://b/k":  TypeS3,
		"gs://b":    TypeGCS,
		"wasbs://c": TypeAzure,
		"sftp://h":  TypeSFTP,
		"/tmp":      TypeLocal,
		"x://y":     TypeLocal,
	}
	for in, want := range tests {
		if got := StoreTypeFromPath(in); got != want {
			t.Errorf("StoreTypeFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		prefix, delimiter, want string
	}{
		{"", "/", ""},
		{"a", "/", "a/"},
		{"a/", "/", "a/"},
		{"a/b", "/", "a/b/"},
		{"a", "", "a"},
	}
	for _, tt := range tests {
		if got := NormalizePrefix(tt.prefix, tt.delimiter); got != tt.want {
			t.Errorf("NormalizePrefix(%q, %q) = %q, want %q", tt.prefix, tt.delimiter, got, tt.want)
		}
	}
}

func TestJoinKey(t *testing.T) {
	tests := []struct {
		elem []string
		want string
	}{
		{[]string{"a", "b"}, "a/b"},
		{[]string{"a/", "b"}, "a/b"},
		{[]string{"a", "/b"}, "a/b"},
		{[]string{"", "b"}, "b"},
		{[]string{"a", ""}, "a"},
		{[]string{"a", "./b"}, "a/./b"},
		{[]string{"a", "b/c", "d"}, "a/b/c/d"},
	}
	for _, tt := range tests {
		if got := JoinKey(tt.elem...); got != tt.want {
			t.Errorf("JoinKey(%q) = %q, want %q", tt.elem, got, tt.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"a/b/c":    "c",
		"a/b/c/":   "c",
		"c":        "c",
		"":         "",
		"/":        "",
		"prefix//": "prefix",
	}
	for in, want := range tests {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}

	if got := AppendBasename("out", "data/train/"); got != filepath.Join("out", "train") {
		t.Errorf("AppendBasename() = %q", got)
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		base, p, want string
	}{
		{"", "x", "x"},
		{"root", "x", "root/x"},
		{"root/", "x/", "root/x/"},
		{"root", "/abs", "/abs"},
		{"s3://b/base", "x/y", "s3://b/base/x/y"},
		{"s3://b/base", "/x", "s3://b/base/x"},
		{"s3://b/base", "gs://other/k", "gs://other/k"},
		{"/srv/data", "/etc/x", "/etc/x"},
		{"s3://b/base", "", "s3://b/base"},
	}
	for _, tt := range tests {
		if got := JoinPath(tt.base, tt.p); got != tt.want {
			t.Errorf("JoinPath(%q, %q) = %q, want %q", tt.base, tt.p, got, tt.want)
		}
	}
}
