package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core"
)

// B2Store writes blobs to a Backblaze B2 bucket.
type B2Store struct {
	client *b2.Client
	bucket *b2.Bucket
}

var _ core.BlobStore = (*B2Store)(nil) // interface compliance check

func NewB2Store(ctx context.Context, account, key, bucketName string) (*B2Store, error) {
	client, err := b2.NewClient(ctx, account, key)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, errors.Wrap(err, "getting b2 bucket")
	}
	return &B2Store{client: client, bucket: bucket}, nil
}

// Put uploads r and returns the download URL of the object.
func (s *B2Store) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	w := s.bucket.Object(key).NewWriter(ctx)
	if _, err = io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", errors.Wrap(err, "writing b2 object")
	}
	if err = w.Close(); err != nil {
		return "", errors.Wrap(err, "closing b2 writer")
	}
	return fmt.Sprintf("%s/file/%s/%s", s.bucket.BaseURL(), s.bucket.Name(), key), nil
}

// New returns the store selected by conf.Storage.Driver.
func New(ctx context.Context, conf *core.Config) (core.BlobStore, error) {
	switch conf.Storage.Driver {
	case "b2":
		return NewB2Store(ctx, conf.Storage.B2Account, conf.Storage.B2Key, conf.Storage.B2Bucket)
	case "", "fs":
		return NewFSStore(conf.Storage.BasePath)
	}
	return nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
}
