package aws

import (
	"context"
	"fmt"
	"io"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used here.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type S3Client struct {
	api S3API
}

// NewS3Client builds a client. endpoint targets S3-compatible stores (R2, MinIO).
func NewS3Client(cfg awssdk.Config, endpoint string, usePathStyle bool) *S3Client {
	api := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = awssdk.String(endpoint)
		}
		o.UsePathStyle = usePathStyle
	})
	return &S3Client{api: api}
}

// NewS3ClientWithAPI is used by tests to inject a fake.
func NewS3ClientWithAPI(api S3API) *S3Client {
	return &S3Client{api: api}
}

// Download streams bucket/key into w.
func (c *S3Client) Download(ctx context.Context, bucket, key string, w io.Writer) (int64, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awssdk.String(bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	n, err := io.Copy(w, out.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read object body: %w", err)
	}
	return n, nil
}

// ETag returns the entity tag of bucket/key without downloading it.
func (c *S3Client) ETag(ctx context.Context, bucket, key string) (string, error) {
	out, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: awssdk.String(bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to head object: %w", err)
	}
	return strings.Trim(awssdk.ToString(out.ETag), `"`), nil
}

// Upload writes body to bucket/key.
func (c *S3Client) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      awssdk.String(bucket),
		Key:         awssdk.String(key),
		Body:        body,
		ContentType: awssdk.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}
