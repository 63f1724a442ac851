// Package blob stores uploaded files on the local file system or on Backblaze B2.
package blob

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core"
)

var ErrInvalidKey = errors.New("invalid blob key")

// FSStore writes blobs below a base directory.
type FSStore struct {
	base string
}

var _ core.BlobStore = (*FSStore)(nil) // interface compliance check

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./media"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating blob directory")
	}
	return &FSStore{base: base}, nil
}

// Put writes r to the key path and returns the key itself as location.
func (s *FSStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err = ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(s.base, filepath.FromSlash(key))
	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.Wrap(err, "creating blob directory")
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", errors.Wrap(err, "creating blob")
	}
	defer func() { _ = f.Close() }()

	if _, err = io.Copy(f, r); err != nil {
		return "", errors.Wrap(err, "writing blob")
	}
	return key, nil
}

// cleanKey rejects keys escaping the store root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", ErrInvalidKey
	}
	return key, nil
}
