package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gobeaver/storekit"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newStore(t *testing.T) *storekit.TreeStore {
	t.Helper()
	store, err := NewStore()
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestList(t *testing.T) {
	store := newStore(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "aa", "b.txt": "b", "sub/c.txt": "c"})

	result, err := store.List(context.Background(), dir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	wantFiles := []storekit.FileEntry{{Name: "a.txt", Size: 2}, {Name: "b.txt", Size: 1}}
	if !reflect.DeepEqual(result.Files, wantFiles) {
		t.Errorf("files = %+v, want %+v", result.Files, wantFiles)
	}
	if !reflect.DeepEqual(result.Dirs, []string{"sub"}) {
		t.Errorf("dirs = %v", result.Dirs)
	}

	result, err = store.List(context.Background(), dir, storekit.WithMaxItems(1))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(result.Files) + len(result.Dirs); n != 1 {
		t.Errorf("got %d entries with MaxItems(1)", n)
	}

	_, err = store.List(context.Background(), filepath.Join(dir, "missing"))
	if !storekit.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUploadFile(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	src := t.TempDir()
	dst := t.TempDir()
	writeFiles(t, src, map[string]string{"f.txt": "data"})

	if err := store.UploadFile(ctx, filepath.Join(src, "f.txt"), dst, storekit.WithBasename(true)); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dst, "f.txt"))
	if err != nil || string(got) != "data" {
		t.Errorf("uploaded = %q, %v", got, err)
	}

	err = store.UploadFile(ctx, filepath.Join(src, "f.txt"), filepath.Join(dst, "f.txt"))
	if !storekit.IsExist(err) {
		t.Errorf("expected exists error, got %v", err)
	}

	err = store.UploadFile(ctx, filepath.Join(src, "missing"), filepath.Join(dst, "new.txt"))
	if !errors.Is(err, storekit.ErrInvalidPath) {
		t.Errorf("expected invalid path, got %v", err)
	}
}

func TestDownloadFile(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	src := t.TempDir()
	writeFiles(t, src, map[string]string{"f.txt": "data"})

	err := store.DownloadFile(ctx, filepath.Join(src, "f.txt"), filepath.Join(t.TempDir(), "no", "such", "dir", "f.txt"))
	if !errors.Is(err, storekit.ErrInvalidPath) {
		t.Errorf("expected invalid path, got %v", err)
	}

	err = store.DownloadFile(ctx, filepath.Join(src, "missing"), filepath.Join(t.TempDir(), "f.txt"))
	if !storekit.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	dst := t.TempDir()
	if err := store.DownloadFile(ctx, filepath.Join(src, "f.txt"), dst, storekit.WithBasename(true)); err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}
	if got, err := os.ReadFile(filepath.Join(dst, "f.txt")); err != nil || string(got) != "data" {
		t.Errorf("downloaded = %q, %v", got, err)
	}
}

func TestUploadDirWithSelector(t *testing.T) {
	store := newStore(t)
	src := t.TempDir()
	dst := t.TempDir()
	writeFiles(t, src, map[string]string{"a.csv": "1", "b.txt": "2", "nested/c.csv": "3"})

	sel := storekit.MustGlob("*.csv")
	if err := store.UploadDir(context.Background(), src, dst, storekit.WithSelector(sel)); err != nil {
		t.Fatalf("UploadDir failed: %v", err)
	}

	for _, name := range []string{"a.csv", "nested/c.csv"} {
		if _, err := os.Stat(filepath.Join(dst, filepath.FromSlash(name))); err != nil {
			t.Errorf("%s not uploaded: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dst, "b.txt")); !os.IsNotExist(err) {
		t.Errorf("b.txt should have been filtered, stat err = %v", err)
	}
}

func TestDownloadDirSkipsExisting(t *testing.T) {
	store := newStore(t)
	src := t.TempDir()
	writeFiles(t, src, map[string]string{"d/1.txt": "remote", "d/sub/2.txt": "two"})

	dst := t.TempDir()
	writeFiles(t, dst, map[string]string{"d/1.txt": "local"})

	if err := store.DownloadDir(context.Background(), filepath.Join(src, "d"), dst, storekit.WithBasename(true)); err != nil {
		t.Fatalf("DownloadDir failed: %v", err)
	}

	if got, _ := os.ReadFile(filepath.Join(dst, "d", "1.txt")); string(got) != "local" {
		t.Errorf("1.txt = %q, want untouched local copy", got)
	}
	if got, _ := os.ReadFile(filepath.Join(dst, "d", "sub", "2.txt")); string(got) != "two" {
		t.Errorf("sub/2.txt = %q", got)
	}
}

func TestDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"d/1.txt": "1", "d/sub/deep/2.txt": "2", "keep.txt": "k"})

	if err := store.Delete(ctx, filepath.Join(dir, "d")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "d")); !os.IsNotExist(err) {
		t.Errorf("d still present: %v", err)
	}
	if ok, _ := store.Exists(ctx, filepath.Join(dir, "keep.txt")); !ok {
		t.Error("keep.txt removed")
	}

	if err := store.Delete(ctx, filepath.Join(dir, "keep.txt")); err != nil {
		t.Fatalf("Delete file failed: %v", err)
	}
	if err := store.Delete(ctx, filepath.Join(dir, "keep.txt")); !storekit.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	a, err := New(WithRoot(root))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		addr    storekit.Address
		want    string
		wantErr error
	}{
		{"relative", storekit.Address{Type: storekit.TypeLocal, Key: "x/y"}, filepath.Join(root, "x", "y"), nil},
		{"empty", storekit.Address{Type: storekit.TypeLocal}, root, nil},
		{"inside absolute", storekit.Address{Type: storekit.TypeLocal, Key: filepath.Join(root, "z")}, filepath.Join(root, "z"), nil},
		{"escape", storekit.Address{Type: storekit.TypeLocal, Key: "../outside"}, "", storekit.ErrInvalidPath},
		{"foreign scheme", storekit.Address{Type: storekit.TypeS3, Container: "b", Key: "k"}, "", storekit.ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.ResolvePath(tt.addr)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ResolvePath() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestRegisteredFactory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	store, err := storekit.GetStore(storekit.TypeLocal, storekit.Access{"root": root})
	if err != nil {
		t.Fatal(err)
	}
	if store.Type() != storekit.TypeLocal {
		t.Errorf("Type() = %q", store.Type())
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root not created: %v", err)
	}
}
