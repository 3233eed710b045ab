package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3ObjectStore is backed by a single s3 client that is shared by all
// concurrent calls; every call carries its own bucket and key.
type S3ObjectStore struct {
	client     *s3.Client
	downloader *manager.Downloader
	uploader   *manager.Uploader
	bucket     string
}

var _ ObjectStore = (*S3ObjectStore)(nil)

func NewS3ObjectStore(bucket string, cfg S3ClientConfig) (*S3ObjectStore, error) {
	client, err := initializeS3Client(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}

	slog.Info("initialized s3 object store", "endpoint", cfg.Endpoint, "bucket", bucket)

	return &S3ObjectStore{
		client:     client,
		downloader: manager.NewDownloader(client),
		uploader:   manager.NewUploader(client),
		bucket:     bucket,
	}, nil
}

func (s *S3ObjectStore) Bucket() string {
	return s.bucket
}

func (s *S3ObjectStore) CreateBucket(ctx context.Context, bucket string) error {
	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		var existErr *types.BucketAlreadyExists
		var ownedErr *types.BucketAlreadyOwnedByYou
		if errors.As(err, &existErr) || errors.As(err, &ownedErr) {
			slog.Info("bucket already exists", "bucket", bucket)
			return nil
		}

		return &StorageError{Op: "create bucket", Bucket: bucket, Err: err}
	}

	slog.Info("bucket created successfully", "bucket", bucket)

	return nil
}

func (s *S3ObjectStore) Download(ctx context.Context, locator, destination string) error {
	bucket, key, err := ParseLocator(locator, s.bucket)
	if err != nil {
		return &StorageError{Op: "download", Err: err}
	}

	slog.Info("downloading object", "bucket", bucket, "key", key, "destination", destination)

	err = writeFileAtomic(destination, func(f *os.File) error {
		_, err := s.downloader.Download(ctx, f, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		return &StorageError{Op: "download", Bucket: bucket, Key: key, Err: err}
	}

	slog.Info("object downloaded successfully", "bucket", bucket, "key", key)

	return nil
}

func (s *S3ObjectStore) Upload(ctx context.Context, source, key string) error {
	file, err := os.Open(source)
	if err != nil {
		return &StorageError{Op: "upload", Bucket: s.bucket, Key: key, Err: err}
	}
	defer file.Close()

	slog.Info("uploading object", "source", source, "bucket", s.bucket, "key", key)

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return &StorageError{Op: "upload", Bucket: s.bucket, Key: key, Err: err}
	}

	slog.Info("object uploaded successfully", "bucket", s.bucket, "key", key)

	return nil
}
