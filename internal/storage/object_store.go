package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ObjectStore stages objects between a remote store and the local filesystem.
// Implementations must be safe for concurrent use.
type ObjectStore interface {
	CreateBucket(ctx context.Context, bucket string) error

	// Download copies the object addressed by locator to destination. The
	// locator is either <scheme>://<bucket>/<key> or a bare key in the
	// default bucket.
	Download(ctx context.Context, locator, destination string) error

	// Upload copies the local file at source to key in the default bucket.
	Upload(ctx context.Context, source, key string) error

	Bucket() string
}

var ErrStorage = errors.New("storage error")

type StorageError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	if e.Bucket == "" && e.Key == "" {
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s s3://%s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// ParseLocator resolves a locator into a bucket and key. Fully qualified
// locators carry their own bucket, bare keys resolve against defaultBucket.
// Keys are taken verbatim, without percent decoding.
func ParseLocator(locator, defaultBucket string) (bucket, key string, err error) {
	if _, rest, ok := strings.Cut(locator, "://"); ok {
		bucket, key, _ = strings.Cut(rest, "/")
		if bucket == "" {
			bucket = defaultBucket
		}
	} else {
		bucket = defaultBucket
		key = strings.TrimPrefix(locator, "/")
	}

	if bucket == "" {
		return "", "", fmt.Errorf("no bucket in locator '%s' and no default bucket configured", locator)
	}
	if key == "" {
		return "", "", fmt.Errorf("no object key in locator '%s'", locator)
	}

	return bucket, key, nil
}
