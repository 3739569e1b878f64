package pipeline

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	text  string
	err   error
	paths []string
}

func (f *fakeExtractor) File(path string) (string, error) {
	f.paths = append(f.paths, path)
	return f.text, f.err
}

// ==========================
// ResumeReader
// ==========================

func TestResumeReader_CachesText(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	files := &fakeFiles{version: "etag-1"}
	ext := &fakeExtractor{text: "Senior Go developer with 6 years of experience"}
	r := NewResumeReader(files, ext, rdb, time.Hour, logger.NewTestLogger(t))

	for i := 0; i < 3; i++ {
		text, err := r.Read(context.Background(), "s3://resumes/21.pdf")
		require.NoError(t, err)
		assert.Equal(t, ext.text, text)
	}
	assert.Len(t, files.fetched, 1)
	assert.Len(t, ext.paths, 1)
	assert.True(t, mr.Exists(resumeCacheKey("s3://resumes/21.pdf", "etag-1")))
}

func TestResumeReader_ReuploadBypassesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	files := &fakeFiles{version: "etag-1"}
	ext := &fakeExtractor{text: "Junior PHP developer"}
	r := NewResumeReader(files, ext, rdb, time.Hour, logger.NewTestLogger(t))

	text, err := r.Read(context.Background(), "s3://resumes/21.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Junior PHP developer", text)

	files.version = "etag-2"
	ext.text = "Senior Go developer with 6 years of experience"
	text, err = r.Read(context.Background(), "s3://resumes/21.pdf")
	require.NoError(t, err)
	assert.Equal(t, ext.text, text)
	assert.Len(t, files.fetched, 2)
}

func TestResumeReader_VersionErrorSkipsCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	files := &fakeFiles{versionErr: stderrors.New("head: forbidden")}
	ext := &fakeExtractor{text: "resume"}
	r := NewResumeReader(files, ext, rdb, time.Hour, logger.NewTestLogger(t))

	for i := 0; i < 2; i++ {
		_, err := r.Read(context.Background(), "s3://resumes/21.pdf")
		require.NoError(t, err)
	}
	assert.Len(t, files.fetched, 2)
	assert.Empty(t, mr.Keys())
}

func TestResumeReader_NoCache(t *testing.T) {
	files := &fakeFiles{}
	ext := &fakeExtractor{text: "resume"}
	r := NewResumeReader(files, ext, nil, time.Hour, logger.NewNoOpLogger())

	_, err := r.Read(context.Background(), "resumes/21.pdf")
	require.NoError(t, err)
	_, err = r.Read(context.Background(), "resumes/21.pdf")
	require.NoError(t, err)
	assert.Len(t, files.fetched, 2)
}

func TestResumeReader_CacheReadErrorFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	key := resumeCacheKey("resumes/21.pdf", "")
	mock.ExpectGet(key).SetErr(stderrors.New("connection refused"))
	mock.Regexp().ExpectSet(key, `.*`, time.Hour).SetErr(stderrors.New("connection refused"))

	ext := &fakeExtractor{text: "resume"}
	r := NewResumeReader(&fakeFiles{}, ext, rdb, time.Hour, logger.NewTestLogger(t))

	text, err := r.Read(context.Background(), "resumes/21.pdf")
	require.NoError(t, err)
	assert.Equal(t, "resume", text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResumeReader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		location string
		files    *fakeFiles
		ext      *fakeExtractor
		code     errors.ErrorCode
	}{
		{"no resume uploaded", "  ", &fakeFiles{}, &fakeExtractor{}, errors.ErrCodeResumeExtractionFailed},
		{"fetch fails", "s3://resumes/x.pdf", &fakeFiles{err: stderrors.New("no such key")}, &fakeExtractor{}, errors.ErrCodeStorageFetchFailed},
		{"extraction fails", "x.pdf", &fakeFiles{}, &fakeExtractor{err: stderrors.New("NO_TEXT_EXTRACTED")}, errors.ErrCodeResumeExtractionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResumeReader(tt.files, tt.ext, nil, 0, logger.NewNoOpLogger())
			_, err := r.Read(context.Background(), tt.location)
			requireCode(t, err, tt.code)
		})
	}
}
