package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultDir is used by NewFile when no directory is given.
const DefaultDir = "./.todolist"

// File stores each key as <dir>/<key>.json on an afero filesystem.
// Writes go to a temp file in the same directory and are renamed into place,
// so readers never observe a partial value.
type File struct {
	fs  afero.Fs
	dir string
}

// NewFile returns a file-backed slot on the OS filesystem rooted at dir.
func NewFile(dir string) (*File, error) {
	return NewFileFs(afero.NewOsFs(), dir)
}

// NewFileFs returns a file-backed slot on fsys, creating dir if needed.
// Use afero.NewMemMapFs() for tests that should not touch disk.
func NewFileFs(fsys afero.Fs, dir string) (*File, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &File{fs: fsys, dir: dir}, nil
}

func (f *File) Driver() Driver { return DriverFile }

// Path returns the file backing key.
func (f *File) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(f.fs, f.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", f.Path(key), err)
	}
	return data, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	path := f.Path(key)
	tmp, err := afero.TempFile(f.fs, f.dir, ".tmp-"+key+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = f.fs.Remove(tmpName) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := f.fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func (f *File) Close() error { return nil }
