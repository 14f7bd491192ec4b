package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pydist/pydist/pkg/block"
)

const BlockstoreType = "local"

var (
	ErrPathNotWritable = errors.New("path provided is not writable")
	ErrBadPath         = errors.New("bad path traversal blocked")
)

type Adapter struct {
	path string
}

func NewAdapter(path string) (*Adapter, error) {
	// Clean() the path so that misconfiguration does not allow path traversal.
	path = filepath.Clean(path)
	err := os.MkdirAll(path, 0o700) //nolint:gomnd
	if err != nil {
		return nil, err
	}
	if !isDirectoryWritable(path) {
		return nil, ErrPathNotWritable
	}
	return &Adapter{path: path}, nil
}

// verifyRelPath ensures that p is under the directory controlled by this adapter. It does not
// examine the filesystem and can mistakenly error out when symbolic links are involved.
func (l *Adapter) verifyRelPath(p string) error {
	if !strings.HasPrefix(filepath.Clean(p), l.path) {
		return fmt.Errorf("%s: %w", p, ErrBadPath)
	}
	return nil
}

func (l *Adapter) getPath(key string) (string, error) {
	p := filepath.Join(l.path, key)
	if err := l.verifyRelPath(p); err != nil {
		return "", err
	}
	return p, nil
}

func (l *Adapter) Put(_ context.Context, key string, reader io.Reader) (int64, error) {
	p, err := l.getPath(key)
	if err != nil {
		return 0, err
	}
	err = os.MkdirAll(filepath.Dir(p), 0o750) //nolint:gomnd
	if err != nil {
		return 0, err
	}
	f, err := os.Create(p)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(f, reader)
	if err != nil {
		_ = f.Close()
		return written, err
	}
	return written, f.Close()
}

func (l *Adapter) Get(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := l.getPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", key, block.ErrDataNotFound)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (l *Adapter) Exists(_ context.Context, key string) (bool, error) {
	p, err := l.getPath(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *Adapter) Remove(_ context.Context, key string) error {
	p, err := l.getPath(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", key, block.ErrDataNotFound)
	}
	if err != nil {
		return err
	}
	// clean up empty parent directories left behind under the adapter root
	dir := filepath.Dir(p)
	for dir != l.path {
		if rmErr := os.Remove(dir); rmErr != nil {
			break
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

func (l *Adapter) BlockstoreType() string {
	return BlockstoreType
}

func isDirectoryWritable(pth string) bool {
	// test ability to write to directory; there is no simple way to test
	// permissions on directories, only to try actually writing a file
	f, err := os.CreateTemp(pth, "dummy")
	if err != nil {
		return false
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return true
}
