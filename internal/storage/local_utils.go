package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// localBucketPath returns the directory backing bucket. Buckets are single
// path elements directly under baseDir.
func localBucketPath(baseDir, bucket string) (string, error) {
	if bucket == "" || bucket == "." || bucket == ".." || strings.ContainsAny(bucket, `/\`) {
		return "", fmt.Errorf("invalid bucket name '%s'", bucket)
	}
	return filepath.Join(baseDir, bucket), nil
}

// localStorageFullpath resolves key inside bucket and rejects keys that
// would resolve to the bucket directory itself or escape it.
func localStorageFullpath(baseDir, bucket, key string) (string, error) {
	bucketDir, err := localBucketPath(baseDir, bucket)
	if err != nil {
		return "", err
	}

	path := filepath.Join(bucketDir, filepath.FromSlash(key))
	rel, err := filepath.Rel(bucketDir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key '%s' resolves outside of bucket '%s'", key, bucket)
	}
	return path, nil
}

// writeFileAtomic creates the parent directories of dest and fills a
// temporary file next to it with write. The temporary file is renamed to
// dest only if write succeeds, otherwise it is removed.
func writeFileAtomic(dest string, write func(f *os.File) error) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temporary file %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move download into place at %s: %w", dest, err)
	}

	return nil
}
