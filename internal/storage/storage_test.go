package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"candidate-evaluator/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	objects map[string][]byte
	puts    map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, puts: map[string][]byte{}}
}

func (f *fakeStore) Download(ctx context.Context, bucket, key string, w io.Writer) (int64, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return 0, errors.New("NoSuchKey")
	}
	n, err := w.Write(data)
	return int64(n), err
}

func (f *fakeStore) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.puts[bucket+"/"+key] = data
	return nil
}

func (f *fakeStore) ETag(ctx context.Context, bucket, key string) (string, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return "", errors.New("NotFound")
	}
	return fmt.Sprintf("etag-%d", len(data)), nil
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in     string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://media/interviews/42.webm", "media", "interviews/42.webm", true},
		{"s3://media/", "", "", false},
		{"s3:///key", "", "", false},
		{"/var/data/resume.pdf", "", "", false},
	}
	for _, tt := range tests {
		bucket, key, ok := ParseLocation(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.bucket, bucket, tt.in)
		assert.Equal(t, tt.key, key, tt.in)
	}
}

func TestFetch_LocalPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o600))

	s := New(nil, "", dir, logger.NewTestLogger(t))
	local, err := s.Fetch(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, p, local.Path)

	local.Release()
	_, err = os.Stat(p)
	assert.NoError(t, err, "local files are never removed")
}

func TestFetch_S3(t *testing.T) {
	store := newFakeStore()
	store.objects["media/interviews/7.webm"] = []byte("video-bytes")
	work := t.TempDir()

	s := New(store, "resumes", work, logger.NewTestLogger(t))
	local, err := s.Fetch(context.Background(), "s3://media/interviews/7.webm")
	require.NoError(t, err)

	data, err := os.ReadFile(local.Path)
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))
	assert.Equal(t, work, filepath.Dir(local.Path))

	local.Release()
	_, err = os.Stat(local.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestFetch_BareKeyUsesDefaultBucket(t *testing.T) {
	store := newFakeStore()
	store.objects["resumes/uploads/cv.pdf"] = []byte("%PDF")

	s := New(store, "resumes", t.TempDir(), logger.NewTestLogger(t))
	local, err := s.Fetch(context.Background(), "uploads/cv.pdf")
	require.NoError(t, err)
	defer local.Release()
	assert.Contains(t, local.Path, "cv.pdf")
}

func TestFetch_Errors(t *testing.T) {
	s := New(nil, "", t.TempDir(), logger.NewTestLogger(t))

	_, err := s.Fetch(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyLocation)

	_, err = s.Fetch(context.Background(), "missing/file.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	work := t.TempDir()
	s = New(newFakeStore(), "b", work, logger.NewTestLogger(t))
	_, err = s.Fetch(context.Background(), "s3://b/nope.pdf")
	assert.Error(t, err)

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial downloads are cleaned up")
}

func TestPut(t *testing.T) {
	store := newFakeStore()
	dir := t.TempDir()
	p := filepath.Join(dir, "ranking.xlsx")
	require.NoError(t, os.WriteFile(p, []byte("xlsx"), 0o600))

	s := New(store, "reports", dir, logger.NewTestLogger(t))
	loc, err := s.Put(context.Background(), p, "", "job-1/ranking.xlsx", "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/job-1/ranking.xlsx", loc)
	assert.True(t, bytes.Equal([]byte("xlsx"), store.puts["reports/job-1/ranking.xlsx"]))

	_, err = New(nil, "", dir, logger.NewNoOpLogger()).Put(context.Background(), p, "", "k", "")
	assert.ErrorIs(t, err, ErrNoBucket)
}

func TestVersion_LocalFileChangesOnRewrite(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(p, []byte("v1"), 0o600))

	s := New(nil, "", dir, logger.NewTestLogger(t))
	first, err := s.Version(context.Background(), p)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(p, []byte("version two"), 0o600))
	second, err := s.Version(context.Background(), p)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVersion_Object(t *testing.T) {
	store := newFakeStore()
	store.objects["resumes/21.pdf"] = []byte("pdf bytes")
	s := New(store, "resumes", t.TempDir(), logger.NewTestLogger(t))

	v, err := s.Version(context.Background(), "s3://resumes/21.pdf")
	require.NoError(t, err)
	assert.Equal(t, "etag-9", v)

	v, err = s.Version(context.Background(), "21.pdf")
	require.NoError(t, err)
	assert.Equal(t, "etag-9", v)

	_, err = s.Version(context.Background(), "s3://resumes/missing.pdf")
	assert.Error(t, err)
	_, err = s.Version(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyLocation)
}
