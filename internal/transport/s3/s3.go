// Package s3 uploads released bundles to an S3-compatible object store.
//
// Remote paths map to object key prefixes. Directories do not exist as
// objects, so a path exists when at least one key lives under it.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	errBucketMissing = errors.New("bucket does not exist")
	errNotConnected  = errors.New("not connected")
)

// Options describe the object store endpoint.
type Options struct {
	// Endpoint is host[:port] without scheme.
	Endpoint string
	// Bucket holds the released bundles.
	Bucket string
	// Region is optional for most S3-compatible stores.
	Region string
	// AccessKey and SecretKey are static credentials.
	AccessKey string
	SecretKey string
	// UseSSL selects HTTPS.
	UseSSL bool
}

// Store is an object-store transport.
type Store struct {
	opts   Options
	client *minio.Client
}

// New creates a disconnected store.
func New(opts Options) *Store {
	return &Store{opts: opts}
}

// Connect creates the client and checks the bucket.
func (s *Store) Connect(ctx context.Context) error {
	client, err := minio.New(s.opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s.opts.AccessKey, s.opts.SecretKey, ""),
		Secure: s.opts.UseSSL,
		Region: s.opts.Region,
	})
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	found, err := client.BucketExists(ctx, s.opts.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.opts.Bucket, err)
	}

	if !found {
		return fmt.Errorf("%w: %s", errBucketMissing, s.opts.Bucket)
	}

	s.client = client

	return nil
}

// Exists reports whether any object lives under the prefix.
func (s *Store) Exists(ctx context.Context, p string) (bool, error) {
	if s.client == nil {
		return false, errNotConnected
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for object := range s.client.ListObjects(ctx, s.opts.Bucket, minio.ListObjectsOptions{
		Prefix:    dirPrefix(p),
		Recursive: true,
		MaxKeys:   1,
	}) {
		if object.Err != nil {
			return false, object.Err
		}

		return true, nil
	}

	return false, nil
}

// RemoveAll deletes every object under the prefix.
func (s *Store) RemoveAll(ctx context.Context, p string) error {
	if s.client == nil {
		return errNotConnected
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := s.client.ListObjects(ctx, s.opts.Bucket, minio.ListObjectsOptions{
		Prefix:    dirPrefix(p),
		Recursive: true,
	})

	var listErr error

	keys := make(chan minio.ObjectInfo)

	go func() {
		defer close(keys)

		for object := range objects {
			if object.Err != nil {
				listErr = object.Err
				return
			}

			select {
			case keys <- object:
			case <-ctx.Done():
				return
			}
		}
	}()

	for removeErr := range s.client.RemoveObjects(ctx, s.opts.Bucket, keys, minio.RemoveObjectsOptions{}) {
		return fmt.Errorf("remove %s: %w", removeErr.ObjectName, removeErr.Err)
	}

	return listErr
}

// UploadDir puts every file of the tree under the prefix.
func (s *Store) UploadDir(ctx context.Context, src, dst string) error {
	if s.client == nil {
		return errNotConnected
	}

	return filepath.WalkDir(src, func(local string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return walkErr
		}

		rel, err := filepath.Rel(src, local)
		if err != nil {
			return err
		}

		key := ObjectKey(dst, filepath.ToSlash(rel))

		_, err = s.client.FPutObject(ctx, s.opts.Bucket, key, local, minio.PutObjectOptions{
			ContentType: contentType(local),
		})
		if err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}

		return nil
	})
}

// Close drops the client. HTTP connections are pooled by the client transport.
func (s *Store) Close() error {
	s.client = nil
	return nil
}

// ObjectKey joins a remote directory and a relative file name into an object key.
func ObjectKey(dir, rel string) string {
	return strings.TrimPrefix(path.Join(dir, rel), "/")
}

func dirPrefix(p string) string {
	return strings.TrimPrefix(path.Clean(p), "/") + "/"
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}

	return "application/octet-stream"
}
