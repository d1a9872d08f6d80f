package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	storeTypeFlag, datasetFlag, prefixFlag, verboseFlag, readOnlyFlag = "", "", "BEAVER_", false, false
	overwriteFlag, basenameFlag, includeFlag, depthFlag = false, false, "", 0
	downloadRecursiveFlag = false
	listMaxItemsFlag, listFilesOnly, listDirsOnly, listFlatFlag = 0, false, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLS(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), "c")

	out, err := run(t, "ls", dir)
	if err != nil {
		t.Fatal(err)
	}
	if want := "sub/\na.txt\nb.txt\n"; out != want {
		t.Errorf("ls output = %q, want %q", out, want)
	}
}

func TestUploadDownload(t *testing.T) {
	src := t.TempDir()
	remote := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "keep.csv"), "1,2")
	writeFile(t, filepath.Join(src, "skip.txt"), "x")

	if _, err := run(t, "upload", "--include", "*.csv", src, remote); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(remote, "skip.txt")); !os.IsNotExist(err) {
		t.Errorf("skip.txt should not have been uploaded: %v", err)
	}

	if _, err := run(t, "download", "--recursive", remote, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(dst, "keep.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "1,2" {
		t.Errorf("downloaded content = %q", got)
	}
}

func TestUploadRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "f.txt")
	dst := filepath.Join(dir, "g.txt")
	writeFile(t, src, "new")
	writeFile(t, dst, "old")

	if _, err := run(t, "upload", src, dst); err == nil {
		t.Fatal("expected an error uploading over an existing file")
	}
	if _, err := run(t, "upload", "--overwrite", src, dst); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "new" {
		t.Errorf("content = %q, want new", got)
	}
}

func TestUnknownType(t *testing.T) {
	_, err := run(t, "ls", "--type", "ftp", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "ftp") {
		t.Errorf("expected an unrecognized type error, got %v", err)
	}
}

func TestReadOnlyFlag(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "keep.txt")
	writeFile(t, target, "k")

	if _, err := run(t, "rm", "--read-only", target); err == nil {
		t.Fatal("expected rm to fail on a read-only store")
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("file removed despite --read-only: %v", err)
	}
}
