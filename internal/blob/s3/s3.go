package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Gichie/CloudFileStorage/internal/blob"
)

// BlobStore implements blob.Store using Amazon S3 or S3-compatible storage
// (MinIO, Localstack).
//
// Keys are opaque identifiers minted by the services ("user_<owner>/<node>"),
// never display paths, so renames and moves in the tree never touch S3.
//
// Concurrent writes to the same key are last-write-wins under S3's
// consistency model, which is acceptable because a key belongs to exactly
// one node row and rows are never re-keyed.
type BlobStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string // Optional prefix for all keys
}

// Config contains configuration for the S3 blob store.
type Config struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "filestorage/" results in keys like "filestorage/user_a/b"
	KeyPrefix string
}

// New creates a new S3-backed blob store and verifies bucket access.
// The bucket must already exist - this function does not create it.
func New(ctx context.Context, cfg Config) (*BlobStore, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &BlobStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

func (s *BlobStore) objectKey(key string) string {
	if s.keyPrefix != "" {
		return s.keyPrefix + key
	}
	return key
}

// Put uploads the stream under the given key, overwriting any existing
// object. The S3 PutObject operation respects context cancellation.
func (s *BlobStore) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}

// Get returns a streaming reader over the object's bytes. If the context is
// cancelled during download, the reader returns an error.
func (s *BlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("object %s: %w", key, blob.ErrNotFound)
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}

	return result.Body, nil
}

// Delete removes the object. S3 DeleteObject is idempotent: deleting a
// missing key succeeds.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}

	return nil
}
