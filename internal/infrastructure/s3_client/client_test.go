package s3_client

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/okieraised/fatigue-agent/internal/utilities"
	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	endpoint := os.Getenv("S3_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("set S3_TEST_ENDPOINT to run against a live object store")
	}

	err := NewS3Client(
		context.Background(),
		WithRegion("us-east-1"),
		WithEndpoint(endpoint, true),
		WithStaticCredentials(os.Getenv("S3_TEST_ACCESS_KEY"), os.Getenv("S3_TEST_SECRET_KEY"), ""),
		WithRetry(5, 30*time.Second),
		WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			},
		},
		),
	)
	assert.NoError(t, err)

	buckets, err := Client().ListBuckets(context.Background(), nil)
	assert.NoError(t, err)
	for _, bucket := range buckets.Buckets {
		fmt.Println(utilities.Deref(bucket.Name))
	}
}
