// Package mirror is the optional best-effort S3-compatible fan-out for
// written message files. It only ever writes: a mirror is a write-only
// shadow of the local copy, so no Get/List/EnsureBucket surface exists.
package mirror

import (
	"bytes"
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/N3kkii/imapget/internal/errs"
)

// Client writes message bytes to one S3-compatible bucket. Constructed
// only when -mirror-bucket was given; a nil *Client is never passed
// around, the feature is absent entirely when unconfigured.
type Client struct {
	client *s3.Client
	bucket string
}

// New builds a Client for bucket, reading endpoint/credential/region
// settings from S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY,
// S3_USE_SSL, and AWS_REGION.
func New(bucket string) (*Client, error) {
	endpoint := os.Getenv("S3_ENDPOINT")
	if endpoint == "" {
		return nil, errs.Wrap(errs.ErrConfig, "S3_ENDPOINT must be set to use -mirror-bucket")
	}
	useSSL := true
	if v := os.Getenv("S3_USE_SSL"); v != "" {
		useSSL, _ = strconv.ParseBool(v)
	}
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}

	credProvider := credentials.NewStaticCredentialsProvider(
		os.Getenv("S3_ACCESS_KEY_ID"),
		os.Getenv("S3_SECRET_ACCESS_KEY"),
		"",
	)

	resolvedEndpoint := normalizeEndpoint(endpoint, useSSL)
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, opts ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               resolvedEndpoint,
			HostnameImmutable: true,
			SigningRegion:     region,
		}, nil
	})

	sdkClient := s3.NewFromConfig(aws.Config{
		Region:                      region,
		Credentials:                 credProvider,
		EndpointResolverWithOptions: customResolver,
	}, func(o *s3.Options) {
		o.UsePathStyle = true // required for MinIO and most self-hosted S3-compatible servers
	})

	return &Client{client: sdkClient, bucket: bucket}, nil
}

func normalizeEndpoint(endpoint string, useSSL bool) string {
	endpoint = strings.TrimSpace(endpoint)
	scheme := "https"
	if !useSSL {
		scheme = "http"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return scheme + "://" + endpoint
	}
	return endpoint
}

// PutBytes uploads data to key. Errors are the caller's (persist.Store's)
// to log and discard — a mirror failure is never fatal.
func (c *Client) PutBytes(key string, data []byte) error {
	_, err := c.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return errs.Wrapf(errs.ErrMirror, "put %s: %v", key, err)
	}
	return nil
}
