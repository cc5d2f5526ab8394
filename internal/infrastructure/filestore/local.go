package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/flyerkit/backend/internal/domain"
)

// LocalStorage keeps files on disk under a base directory
type LocalStorage struct {
	baseDir         string
	publicURLPrefix string
}

// NewLocalStorage creates a local storage rooted at baseDir.
// Saved files are reported as publicURLPrefix + "/" + dir + "/" + name.
func NewLocalStorage(baseDir, publicURLPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{
		baseDir:         baseDir,
		publicURLPrefix: strings.TrimSuffix(publicURLPrefix, "/"),
	}, nil
}

// BaseDir returns the directory files are written to
func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}

// Save writes r to baseDir/dir/name, replacing any previous file atomically
func (s *LocalStorage) Save(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	if err := validateObjectName(dir, name); err != nil {
		return "", err
	}

	targetDir := filepath.Join(s.baseDir, dir)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	// Write to a unique temp file first so concurrent writers never see partial files
	tmp, err := os.CreateTemp(targetDir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, &contextReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(targetDir, name)); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	return s.publicURLPrefix + "/" + path.Join(dir, name), nil
}

// Open reads a file previously saved under the public URL prefix
func (s *LocalStorage) Open(ctx context.Context, publicPath string) (io.ReadCloser, error) {
	rel, ok := strings.CutPrefix(publicPath, s.publicURLPrefix+"/")
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a stored file", domain.ErrInvalidRequest, publicPath)
	}
	rel = path.Clean(rel)
	if err := validateObjectName(path.Dir(rel), path.Base(rel)); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return f, nil
}

// Delete removes baseDir/dir/name
func (s *LocalStorage) Delete(ctx context.Context, dir, name string) error {
	if err := validateObjectName(dir, name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.baseDir, dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

// validateObjectName rejects names that could escape the storage root
func validateObjectName(dir, name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: invalid file name %q", domain.ErrInvalidRequest, name)
	}
	if dir == "" || strings.Contains(dir, "..") || strings.HasPrefix(dir, "/") {
		return fmt.Errorf("%w: invalid directory %q", domain.ErrInvalidRequest, dir)
	}
	return nil
}

// contextReader stops a copy once the context is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
