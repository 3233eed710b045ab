package storage

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeS3Client_CustomEndpoint(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")

	client, err := initializeS3Client(S3ClientConfig{
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
	})
	require.NoError(t, err)

	opts := client.Options()
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
	assert.Equal(t, defaultS3Region, opts.Region)
	assert.True(t, opts.UsePathStyle)
}

func TestInitializeS3Client_Region(t *testing.T) {
	client, err := initializeS3Client(S3ClientConfig{
		Region:          "eu-west-1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	opts := client.Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	assert.Nil(t, opts.BaseEndpoint)
}
