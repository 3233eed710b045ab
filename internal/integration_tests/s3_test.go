package integrationtests

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"forest-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bucketName = "test-bucket"

func TestS3ObjectStore_UploadDownload(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store, _ := setupS3ObjectStore(t, ctx, bucketName)
	uploadString(t, ctx, store, "test-dir/test-file.txt", "Test content")

	dest := filepath.Join(t.TempDir(), "nested", "dir", "file.txt")
	require.NoError(t, store.Download(ctx, "test-dir/test-file.txt", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "Test content", string(data))

	// A qualified locator resolves to the same object.
	dest2 := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, store.Download(ctx, "s3://"+bucketName+"/test-dir/test-file.txt", dest2))
	data, err = os.ReadFile(dest2)
	require.NoError(t, err)
	assert.Equal(t, "Test content", string(data))
}

func TestS3ObjectStore_BucketOverride(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store, endpoint := setupS3ObjectStore(t, ctx, bucketName)
	require.NoError(t, store.CreateBucket(ctx, "other-bucket"))

	other, err := storage.NewS3ObjectStore("other-bucket", storage.S3ClientConfig{
		Endpoint:        endpoint,
		AccessKeyID:     minioUsername,
		SecretAccessKey: minioPassword,
	})
	require.NoError(t, err)
	uploadString(t, ctx, other, "data.csv", "a,b\n1,2\n")

	dest := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, store.Download(ctx, "s3://other-bucket/data.csv", dest))

	err = store.Download(ctx, "data.csv", filepath.Join(t.TempDir(), "data.csv"))
	require.Error(t, err, "bare keys resolve against the default bucket")
}

func TestS3ObjectStore_MissingObject(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store, _ := setupS3ObjectStore(t, ctx, bucketName)

	destDir := t.TempDir()
	err := store.Download(ctx, "does/not/exist.csv", filepath.Join(destDir, "exist.csv"))
	require.ErrorIs(t, err, storage.ErrStorage)

	var storageErr *storage.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, bucketName, storageErr.Bucket)
	assert.Equal(t, "does/not/exist.csv", storageErr.Key)

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed download must not leave files behind")
}

func TestS3ObjectStore_CreateBucketIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store, _ := setupS3ObjectStore(t, ctx, bucketName)
	require.NoError(t, store.CreateBucket(ctx, bucketName))
}

func TestS3ObjectStore_ConcurrentTransfers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store, _ := setupS3ObjectStore(t, ctx, bucketName)
	uploadString(t, ctx, store, "shared.csv", housingCSV())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dest := filepath.Join(t.TempDir(), "shared.csv")
			assert.NoError(t, store.Download(ctx, "shared.csv", dest))
		}()
	}
	wg.Wait()
}
