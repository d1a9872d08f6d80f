package storekit

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// TreeStore implements Store on top of a natively hierarchical TreeBackend.
// Listings are single directory reads and directories are removed
// explicitly once emptied.
type TreeStore struct {
	backend TreeBackend
	logger  *slog.Logger
}

// NewTreeStore wraps backend. A nil logger uses slog.Default().
func NewTreeStore(backend TreeBackend, logger *slog.Logger) *TreeStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TreeStore{backend: backend, logger: logger}
}

// Backend returns the native backend.
func (s *TreeStore) Backend() TreeBackend {
	return s.backend
}

func (s *TreeStore) Type() StoreType {
	return s.backend.Type()
}

func (s *TreeStore) Connect(ctx context.Context) error {
	return s.backend.Connect(ctx)
}

func (s *TreeStore) Close() error {
	return s.backend.Close()
}

// Environ exports the backend credentials when the backend supports it.
func (s *TreeStore) Environ(ctx context.Context) ([]string, error) {
	if e, ok := s.backend.(Environer); ok {
		return e.Environ(ctx)
	}
	return nil, nil
}

func (s *TreeStore) prepare(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	addr, err := ParseAddress(p)
	if err != nil {
		return "", err
	}
	native, err := s.backend.ResolvePath(addr)
	if err != nil {
		return "", err
	}
	if err := s.backend.Connect(ctx); err != nil {
		return "", err
	}
	return native, nil
}

// wrap maps a native error to the store taxonomy.
func (s *TreeStore) wrap(op, p string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, fs.ErrNotExist) {
		return NewPathError(op, p, ErrNotFound, err)
	}
	return NewPathError(op, p, ErrTransfer, err)
}

func (s *TreeStore) List(ctx context.Context, path string, opts ...Option) (*ListingResult, error) {
	o := NewOptions(opts...)
	dir, err := s.prepare(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.list(dir, o)
}

func (s *TreeStore) list(dir string, o *Options) (*ListingResult, error) {
	infos, err := s.backend.ReadDir(dir)
	if err != nil {
		return nil, s.wrap("list", dir, err)
	}

	result := &ListingResult{Files: []FileEntry{}, Dirs: []string{}}
	for _, info := range infos {
		if o.MaxItems > 0 && len(result.Files)+len(result.Dirs) >= o.MaxItems {
			break
		}
		if info.IsDir() {
			if !o.SkipDirs {
				result.Dirs = append(result.Dirs, info.Name())
			}
			continue
		}
		if !o.SkipFiles {
			result.Files = append(result.Files, FileEntry{Name: info.Name(), Size: info.Size()})
		}
	}
	return result, nil
}

func (s *TreeStore) LS(ctx context.Context, path string) (*DirListing, error) {
	result, err := s.List(ctx, path)
	if err != nil {
		return nil, err
	}
	return result.Names(), nil
}

func (s *TreeStore) Exists(ctx context.Context, path string, _ ...Option) (bool, error) {
	p, err := s.prepare(ctx, path)
	if err != nil {
		return false, err
	}
	return s.exists(p)
}

func (s *TreeStore) exists(p string) (bool, error) {
	_, err := s.backend.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, s.wrap("stat", p, err)
}

func (s *TreeStore) UploadFile(ctx context.Context, localPath, remote string, opts ...Option) error {
	o := NewOptions(opts...)
	dst, err := s.prepare(ctx, remote)
	if err != nil {
		return err
	}
	if o.UseBasename {
		dst = s.backend.Join(dst, filepath.Base(localPath))
	}
	return s.putFile(ctx, localPath, dst, o)
}

func (s *TreeStore) putFile(ctx context.Context, localPath, dst string, o *Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !o.Overwrite {
		exists, err := s.exists(dst)
		if err != nil {
			return err
		}
		if exists {
			return &PathError{Op: "upload", Path: dst, Err: ErrObjectExists}
		}
	}

	src, err := os.Open(localPath)
	if err != nil {
		return NewPathError("upload", localPath, ErrInvalidPath, err)
	}
	defer src.Close()

	w, err := s.backend.Create(dst)
	if err != nil {
		return s.wrap("upload", dst, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return s.wrap("upload", dst, err)
	}
	if err := w.Close(); err != nil {
		return s.wrap("upload", dst, err)
	}
	s.logger.Debug("uploaded file", "store", s.Type(), "path", dst, "local", localPath)
	return nil
}

func (s *TreeStore) UploadDir(ctx context.Context, localDir, remote string, opts ...Option) error {
	o := NewOptions(opts...)
	root, err := s.prepare(ctx, remote)
	if err != nil {
		return err
	}
	if o.UseBasename {
		root = s.backend.Join(root, BaseName(localDir))
	}
	if err := s.backend.MkdirAll(root); err != nil {
		return s.wrap("mkdir", root, err)
	}

	made := map[string]bool{root: true}
	return WalkFiles(ctx, localDir, o.Selector, func(rel string, _ fs.FileInfo) error {
		dst := s.backend.Join(root, rel)
		if parent := s.backend.Join(root, filepath.ToSlash(filepath.Dir(filepath.FromSlash(rel)))); !made[parent] {
			if err := s.backend.MkdirAll(parent); err != nil {
				return s.wrap("mkdir", parent, err)
			}
			made[parent] = true
		}
		return s.putFile(ctx, filepath.Join(localDir, filepath.FromSlash(rel)), dst, o)
	})
}

func (s *TreeStore) DownloadFile(ctx context.Context, remote, localPath string, opts ...Option) error {
	o := NewOptions(opts...)
	src, err := s.prepare(ctx, remote)
	if err != nil {
		return err
	}
	if o.UseBasename {
		localPath = AppendBasename(localPath, src)
	}
	return s.getFile(ctx, src, localPath)
}

func (s *TreeStore) getFile(ctx context.Context, src, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := checkParentDir("download", localPath)
	if err != nil {
		return err
	}

	r, err := s.backend.Open(src)
	if err != nil {
		return s.wrap("download", src, err)
	}
	defer r.Close()

	f, err := os.Create(abs)
	if err != nil {
		return NewPathError("download", localPath, ErrInvalidPath, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(abs)
		return s.wrap("download", src, err)
	}
	if err := f.Close(); err != nil {
		return NewPathError("download", localPath, ErrTransfer, err)
	}
	s.logger.Debug("downloaded file", "store", s.Type(), "path", src, "local", abs)
	return nil
}

// DownloadDir mirrors the tree under remote into localDir. Files already
// present locally are skipped; only their presence is checked.
func (s *TreeStore) DownloadDir(ctx context.Context, remote, localDir string, opts ...Option) error {
	o := NewOptions(opts...)
	root, err := s.prepare(ctx, remote)
	if err != nil {
		return err
	}
	if o.UseBasename {
		localDir = AppendBasename(localDir, root)
	}

	listOpts := &Options{}
	stack := []downloadJob{{key: root, local: localDir}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		job := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := os.MkdirAll(job.local, 0o755); err != nil {
			return NewPathError("download", job.local, ErrInvalidPath, err)
		}

		result, err := s.list(job.key, listOpts)
		if err != nil {
			return err
		}

		for _, f := range result.Files {
			local, err := localChild("download", job.local, f.Name)
			if err != nil {
				return err
			}
			if localFileExists(local) {
				s.logger.Debug("skipping existing file", "store", s.Type(), "local", local)
				continue
			}
			if err := s.getFile(ctx, s.backend.Join(job.key, f.Name), local); err != nil {
				return err
			}
		}

		dirs := append([]string(nil), result.Dirs...)
		sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
		for _, d := range dirs {
			local, err := localChild("download", job.local, d)
			if err != nil {
				return err
			}
			stack = append(stack, downloadJob{key: s.backend.Join(job.key, d), local: local})
		}
	}

	return nil
}

type deleteFrame struct {
	path     string
	expanded bool
}

// Delete removes path. Directories are emptied depth first and removed once
// their children are gone.
func (s *TreeStore) Delete(ctx context.Context, path string, _ ...Option) error {
	root, err := s.prepare(ctx, path)
	if err != nil {
		return err
	}

	stack := []deleteFrame{{path: root}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.expanded {
			if err := s.backend.RemoveDir(frame.path); err != nil {
				return s.wrap("delete", frame.path, err)
			}
			s.logger.Debug("removed directory", "store", s.Type(), "path", frame.path)
			continue
		}

		info, err := s.backend.Stat(frame.path)
		if err != nil {
			return s.wrap("delete", frame.path, err)
		}
		if !info.IsDir() {
			if err := s.removeFile(frame.path); err != nil {
				return err
			}
			continue
		}

		result, err := s.list(frame.path, &Options{})
		if err != nil {
			return err
		}
		for _, f := range result.Files {
			if err := s.removeFile(s.backend.Join(frame.path, f.Name)); err != nil {
				return err
			}
		}
		stack = append(stack, deleteFrame{path: frame.path, expanded: true})
		for _, d := range result.Dirs {
			stack = append(stack, deleteFrame{path: s.backend.Join(frame.path, d)})
		}
	}

	return nil
}

func (s *TreeStore) removeFile(p string) error {
	if err := s.backend.Remove(p); err != nil {
		return s.wrap("delete", p, err)
	}
	s.logger.Debug("removed file", "store", s.Type(), "path", p)
	return nil
}

var _ Store = (*TreeStore)(nil)
