package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "test-bucket"

func setupTestObjectStore(t *testing.T) (*LocalObjectStore, string) {
	t.Helper()
	dir := t.TempDir()
	objectStore, err := NewLocalObjectStore(dir, testBucket)
	require.NoError(t, err)
	require.NoError(t, objectStore.CreateBucket(context.Background(), testBucket))
	return objectStore, dir
}

func putFile(t *testing.T, baseDir, bucket, key, content string) {
	t.Helper()
	path, err := localStorageFullpath(baseDir, bucket, key)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), os.ModePerm))
	require.NoError(t, os.WriteFile(path, []byte(content), os.ModePerm))
}

func TestLocalObjectStore_DownloadBareKey(t *testing.T) {
	objectStore, baseDir := setupTestObjectStore(t)
	putFile(t, baseDir, testBucket, "datasets/data.csv", "a,b\n1,2\n")

	dest := filepath.Join(t.TempDir(), "nested", "dir", "data.csv")
	require.NoError(t, objectStore.Download(context.Background(), "datasets/data.csv", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestLocalObjectStore_DownloadQualifiedLocator(t *testing.T) {
	objectStore, baseDir := setupTestObjectStore(t)
	putFile(t, baseDir, "other-bucket", "k1", "from other bucket")
	putFile(t, baseDir, testBucket, "k1", "from default bucket")

	dest := filepath.Join(t.TempDir(), "k1")
	require.NoError(t, objectStore.Download(context.Background(), "s3://other-bucket/k1", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "from other bucket", string(data))

	require.NoError(t, objectStore.Download(context.Background(), "k1", dest))
	data, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "from default bucket", string(data))
}

func TestLocalObjectStore_DownloadAlwaysTransfers(t *testing.T) {
	objectStore, baseDir := setupTestObjectStore(t)
	putFile(t, baseDir, testBucket, "model.gob", "fresh")

	dest := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, os.WriteFile(dest, []byte("stale"), os.ModePerm))

	require.NoError(t, objectStore.Download(context.Background(), "model.gob", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestLocalObjectStore_DownloadMissingObject(t *testing.T) {
	objectStore, _ := setupTestObjectStore(t)

	destDir := t.TempDir()
	dest := filepath.Join(destDir, "missing.csv")
	err := objectStore.Download(context.Background(), "missing.csv", dest)
	require.Error(t, err)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "download", storageErr.Op)
	assert.Equal(t, testBucket, storageErr.Bucket)
	assert.Equal(t, "missing.csv", storageErr.Key)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial files should be left behind")
}

func TestLocalObjectStore_Upload(t *testing.T) {
	objectStore, baseDir := setupTestObjectStore(t)

	src := filepath.Join(t.TempDir(), "m1.gob")
	require.NoError(t, os.WriteFile(src, []byte("model bytes"), os.ModePerm))

	require.NoError(t, objectStore.Upload(context.Background(), src, "models/m1.gob"))

	data, err := os.ReadFile(filepath.Join(baseDir, testBucket, "models", "m1.gob"))
	require.NoError(t, err)
	assert.Equal(t, "model bytes", string(data))
}

func TestLocalObjectStore_UploadMissingSource(t *testing.T) {
	objectStore, _ := setupTestObjectStore(t)

	err := objectStore.Upload(context.Background(), filepath.Join(t.TempDir(), "nope"), "models/nope.gob")
	require.ErrorIs(t, err, ErrStorage)
}

func TestLocalObjectStore_KeysStayInsideBucket(t *testing.T) {
	root := t.TempDir()
	objectStore, err := NewLocalObjectStore(filepath.Join(root, "store"), testBucket)
	require.NoError(t, err)
	require.NoError(t, objectStore.CreateBucket(context.Background(), testBucket))

	secret := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("do not read"), os.ModePerm))

	dest := filepath.Join(t.TempDir(), "out.txt")
	for _, locator := range []string{"../../secret.txt", "s3://" + testBucket + "/../../secret.txt", "s3://../secret.txt", "datasets/.."} {
		err := objectStore.Download(context.Background(), locator, dest)
		require.ErrorIs(t, err, ErrStorage, "locator %q", locator)
		_, statErr := os.Stat(dest)
		assert.True(t, os.IsNotExist(statErr), "locator %q", locator)
	}

	src := filepath.Join(t.TempDir(), "m1.gob")
	require.NoError(t, os.WriteFile(src, []byte("model bytes"), os.ModePerm))

	err = objectStore.Upload(context.Background(), src, "../../escaped.txt")
	require.ErrorIs(t, err, ErrStorage)
	_, statErr := os.Stat(filepath.Join(root, "escaped.txt"))
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, objectStore.Upload(context.Background(), src, "models/../m1.gob"))
	data, err := os.ReadFile(filepath.Join(root, "store", testBucket, "m1.gob"))
	require.NoError(t, err)
	assert.Equal(t, "model bytes", string(data))
}

func TestLocalObjectStore_InvalidBucket(t *testing.T) {
	objectStore, _ := setupTestObjectStore(t)

	for _, bucket := range []string{"..", ".", "a/b"} {
		err := objectStore.CreateBucket(context.Background(), bucket)
		require.ErrorIs(t, err, ErrStorage, "bucket %q", bucket)
	}
}
