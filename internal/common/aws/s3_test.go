package aws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	body    string
	getErr  error
	putKey  string
	putBody string
	etag    string
	headErr error
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{ETag: awssdk.String(f.etag)}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.putKey = awssdk.ToString(in.Bucket) + "/" + awssdk.ToString(in.Key)
	f.putBody = string(data)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Client_Download(t *testing.T) {
	c := NewS3ClientWithAPI(&fakeS3{body: "resume text"})
	var buf bytes.Buffer
	n, err := c.Download(context.Background(), "b", "k", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.Equal(t, "resume text", buf.String())

	c = NewS3ClientWithAPI(&fakeS3{getErr: errors.New("NoSuchKey")})
	_, err = c.Download(context.Background(), "b", "k", &buf)
	assert.ErrorContains(t, err, "NoSuchKey")
}

func TestS3Client_Upload(t *testing.T) {
	api := &fakeS3{}
	c := NewS3ClientWithAPI(api)
	require.NoError(t, c.Upload(context.Background(), "reports", "r.xlsx", "application/octet-stream", strings.NewReader("data")))
	assert.Equal(t, "reports/r.xlsx", api.putKey)
	assert.Equal(t, "data", api.putBody)
}

func TestS3Client_ETag(t *testing.T) {
	c := NewS3ClientWithAPI(&fakeS3{etag: `"9b2cf535f27731c974343645a3985328"`})
	etag, err := c.ETag(context.Background(), "resumes", "21.pdf")
	require.NoError(t, err)
	assert.Equal(t, "9b2cf535f27731c974343645a3985328", etag)

	c = NewS3ClientWithAPI(&fakeS3{headErr: errors.New("NotFound")})
	_, err = c.ETag(context.Background(), "resumes", "21.pdf")
	assert.ErrorContains(t, err, "NotFound")
}
