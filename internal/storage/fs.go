package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FSClient stores objects as plain files under a local directory.
// It is the default upload backend: files keep their original names,
// and writing an existing key overwrites it.
type FSClient struct {
	dir string
}

// NewFSClient constructs a filesystem client rooted at dir.
func NewFSClient(dir string) (*FSClient, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory is required")
	}
	return &FSClient{dir: dir}, nil
}

// EnsureBucket creates the upload directory if it does not exist.
func (f *FSClient) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(f.dir, 0o755)
}

// Put writes the object bytes to a file named by the key. The key is
// reduced to its base name so it cannot address anything outside the
// upload directory.
func (f *FSClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	file, err := os.Create(f.path(key))
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Get opens the file named by the key.
func (f *FSClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(f.path(key))
}

// Delete removes the file named by the key. A missing file is not an
// error.
func (f *FSClient) Delete(ctx context.Context, key string) error {
	err := os.Remove(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Bucket returns the upload directory.
func (f *FSClient) Bucket() string {
	return f.dir
}

func (f *FSClient) path(key string) string {
	return filepath.Join(f.dir, filepath.Base(filepath.Clean("/"+key)))
}
