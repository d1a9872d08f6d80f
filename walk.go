package storekit

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// WalkFiles visits every regular file below root, depth first, calling fn with
// the slash-separated path relative to root. Directories are kept on an
// explicit stack. The walk stops at the first error returned by fn or by the
// filesystem, and between steps when ctx is done.
func WalkFiles(ctx context.Context, root string, sel Selector, fn func(rel string, info fs.FileInfo) error) error {
	if sel == nil {
		sel = All()
	}

	info, err := os.Stat(root)
	if err != nil {
		return NewPathError("walk", root, ErrInvalidPath, err)
	}
	if !info.IsDir() {
		return &PathError{Op: "walk", Path: root, Err: ErrInvalidPath}
	}

	stack := []string{""}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		rel := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dir := filepath.Join(root, filepath.FromSlash(rel))
		entries, err := os.ReadDir(dir)
		if err != nil {
			return NewPathError("walk", dir, ErrInvalidPath, err)
		}

		var subdirs []string
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				return NewPathError("walk", filepath.Join(dir, entry.Name()), ErrInvalidPath, err)
			}
			childRel := path.Join(rel, entry.Name())

			if info.IsDir() {
				if sel.TraverseDescendants(childRel, info) {
					subdirs = append(subdirs, childRel)
				}
				continue
			}
			if !info.Mode().IsRegular() || !sel.Match(childRel, info) {
				continue
			}
			if err := fn(childRel, info); err != nil {
				return err
			}
		}

		// ReadDir sorts by name; push in reverse so siblings pop in order.
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	return nil
}

// localFileExists reports whether p names an existing local path.
func localFileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// checkParentDir fails with ErrInvalidPath unless the directory that will hold
// p exists.
func checkParentDir(op, p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", NewPathError(op, p, ErrInvalidPath, err)
	}
	info, err := os.Stat(filepath.Dir(abs))
	if err != nil || !info.IsDir() {
		return "", &PathError{Op: op, Path: p, Err: ErrInvalidPath}
	}
	return abs, nil
}

// localChild joins a single remote name onto dir. Names that would leave dir
// ("", ".", "..", or anything with a separator) fail with ErrInvalidPath.
func localChild(op, dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.Contains(name, "/") || strings.ContainsRune(name, filepath.Separator) {
		return "", &PathError{Op: op, Path: name, Err: fmt.Errorf("%w: unsafe remote name", ErrInvalidPath)}
	}
	return filepath.Join(dir, name), nil
}
