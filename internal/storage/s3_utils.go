package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// defaultS3Region is used when neither the config nor the environment names
// a region, which is the usual case for MinIO.
const defaultS3Region = "us-east-1"

type S3ClientConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func loadAWSConfig(ctx context.Context, region string, creds aws.CredentialsProvider) (aws.Config, error) {
	var opts []func(*aws_config.LoadOptions) error
	if region != "" {
		opts = append(opts, aws_config.WithRegion(region))
	}
	if creds != nil {
		opts = append(opts, aws_config.WithCredentialsProvider(creds))
	}

	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	if awsCfg.Region == "" {
		awsCfg.Region = defaultS3Region
	}
	return awsCfg, nil
}

// initializeS3Client builds a path-style client for cfg. Static keys win,
// then the default credential chain, then anonymous access so that public
// buckets stay readable.
func initializeS3Client(cfg S3ClientConfig) (*s3.Client, error) {
	ctx := context.Background()

	var creds aws.CredentialsProvider
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		creds = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.Region, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config: %w", err)
	}

	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		slog.Warn("no s3 credentials resolved, using anonymous access", "endpoint", cfg.Endpoint, "error", err)
		awsCfg, err = loadAWSConfig(ctx, cfg.Region, aws.AnonymousCredentials{})
		if err != nil {
			return nil, fmt.Errorf("failed to create aws config with anonymous credentials: %w", err)
		}
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}
