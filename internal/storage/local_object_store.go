package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalObjectStore keeps each bucket as a directory under baseDir.
type LocalObjectStore struct {
	baseDir string
	bucket  string
}

var _ ObjectStore = (*LocalObjectStore)(nil)

func NewLocalObjectStore(dir, bucket string) (*LocalObjectStore, error) {
	baseDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", dir, err)
	}

	return &LocalObjectStore{baseDir: baseDir, bucket: bucket}, nil
}

func (s *LocalObjectStore) Bucket() string {
	return s.bucket
}

func (s *LocalObjectStore) CreateBucket(ctx context.Context, bucket string) error {
	path, err := localBucketPath(s.baseDir, bucket)
	if err != nil {
		return &StorageError{Op: "create bucket", Bucket: bucket, Err: err}
	}
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return &StorageError{Op: "create bucket", Bucket: bucket, Err: err}
	}
	return nil
}

func (s *LocalObjectStore) Download(ctx context.Context, locator, destination string) error {
	bucket, key, err := ParseLocator(locator, s.bucket)
	if err != nil {
		return &StorageError{Op: "download", Err: err}
	}

	path, err := localStorageFullpath(s.baseDir, bucket, key)
	if err != nil {
		return &StorageError{Op: "download", Bucket: bucket, Key: key, Err: err}
	}

	src, err := os.Open(path)
	if err != nil {
		return &StorageError{Op: "download", Bucket: bucket, Key: key, Err: err}
	}
	defer src.Close()

	err = writeFileAtomic(destination, func(f *os.File) error {
		_, err := io.Copy(f, src)
		return err
	})
	if err != nil {
		return &StorageError{Op: "download", Bucket: bucket, Key: key, Err: err}
	}

	slog.Debug("object copied from local store", "bucket", bucket, "key", key, "destination", destination)

	return nil
}

func (s *LocalObjectStore) Upload(ctx context.Context, source, key string) error {
	dest, err := localStorageFullpath(s.baseDir, s.bucket, key)
	if err != nil {
		return &StorageError{Op: "upload", Bucket: s.bucket, Key: key, Err: err}
	}

	src, err := os.Open(source)
	if err != nil {
		return &StorageError{Op: "upload", Bucket: s.bucket, Key: key, Err: err}
	}
	defer src.Close()

	err = writeFileAtomic(dest, func(f *os.File) error {
		_, err := io.Copy(f, src)
		return err
	})
	if err != nil {
		return &StorageError{Op: "upload", Bucket: s.bucket, Key: key, Err: err}
	}

	slog.Debug("object copied to local store", "bucket", s.bucket, "key", key, "source", source)

	return nil
}
