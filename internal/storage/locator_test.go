package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		locator string
		bucket  string
		key     string
	}{
		{"s3://other-bucket/k1", "other-bucket", "k1"},
		{"k1", "default", "k1"},
		{"s3://other-bucket/datasets/2024/data.csv", "other-bucket", "datasets/2024/data.csv"},
		{"minio://archive/models/m1.gob", "archive", "models/m1.gob"},
		{"s3:///k1", "default", "k1"},
		{"/datasets/data.csv", "default", "datasets/data.csv"},
		{"s3://bucket/reports/50%off.csv", "bucket", "reports/50%off.csv"},
		{"s3://bucket/a%2Fb.csv", "bucket", "a%2Fb.csv"},
		{"s3://bucket/with space/data?v=1.csv", "bucket", "with space/data?v=1.csv"},
		{"reports/50%off.csv", "default", "reports/50%off.csv"},
	}

	for _, test := range tests {
		t.Run(test.locator, func(t *testing.T) {
			bucket, key, err := ParseLocator(test.locator, "default")
			require.NoError(t, err)
			assert.Equal(t, test.bucket, bucket)
			assert.Equal(t, test.key, key)
		})
	}
}

func TestParseLocator_Invalid(t *testing.T) {
	for _, locator := range []string{"", "s3://bucket", "s3://bucket/", "/"} {
		_, _, err := ParseLocator(locator, "default")
		assert.Error(t, err, "locator %q", locator)
	}

	_, _, err := ParseLocator("k1", "")
	assert.Error(t, err)
}

func TestParseLocator_Properties(t *testing.T) {
	segment := rapid.StringMatching(`[a-z0-9%][a-z0-9_.%-]{0,15}`)

	rapid.Check(t, func(t *rapid.T) {
		defaultBucket := rapid.StringMatching(`[a-z][a-z0-9-]{2,20}`).Draw(t, "defaultBucket")
		bucket := rapid.StringMatching(`[a-z][a-z0-9-]{2,20}`).Draw(t, "bucket")
		parts := rapid.SliceOfN(segment, 1, 4).Draw(t, "parts")

		key := parts[0]
		for _, p := range parts[1:] {
			key += "/" + p
		}

		gotBucket, gotKey, err := ParseLocator("s3://"+bucket+"/"+key, defaultBucket)
		if err != nil {
			t.Fatalf("qualified locator: %v", err)
		}
		if gotBucket != bucket || gotKey != key {
			t.Fatalf("qualified locator resolved to %s/%s, expected %s/%s", gotBucket, gotKey, bucket, key)
		}

		gotBucket, gotKey, err = ParseLocator(key, defaultBucket)
		if err != nil {
			t.Fatalf("bare locator: %v", err)
		}
		if gotBucket != defaultBucket || gotKey != key {
			t.Fatalf("bare locator resolved to %s/%s, expected %s/%s", gotBucket, gotKey, defaultBucket, key)
		}
	})
}
