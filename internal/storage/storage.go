// Package storage resolves resume and video locations to local files.
// A location is either a local path or s3://bucket/key; bare keys that do not
// exist on disk are looked up in the default bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"candidate-evaluator/internal/common/aws"
	"candidate-evaluator/internal/common/logger"

	"github.com/google/uuid"
)

var (
	ErrEmptyLocation = errors.New("EMPTY_LOCATION")
	ErrNotFound      = errors.New("OBJECT_NOT_FOUND")
	ErrNoBucket      = errors.New("NO_BUCKET_CONFIGURED")
)

const s3Scheme = "s3://"

// ObjectStore is the remote side; *aws.S3Client satisfies it.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key string, w io.Writer) (int64, error)
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error
	ETag(ctx context.Context, bucket, key string) (string, error)
}

var _ ObjectStore = (*aws.S3Client)(nil)

// Local is a file on disk. Release removes it when it was downloaded.
type Local struct {
	Path       string
	downloaded bool
}

func (l *Local) Release() {
	if l != nil && l.downloaded {
		_ = os.Remove(l.Path)
	}
}

type Storage struct {
	remote  ObjectStore
	bucket  string
	workDir string
	logger  logger.Logger
}

// New returns a Storage. remote may be nil when only local paths are used.
func New(remote ObjectStore, bucket, workDir string, log logger.Logger) *Storage {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Storage{
		remote:  remote,
		bucket:  bucket,
		workDir: workDir,
		logger:  log.WithFields(map[string]interface{}{"component": "storage"}),
	}
}

// ParseLocation splits s3://bucket/key. ok is false for anything else.
func ParseLocation(location string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(location, s3Scheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(location, s3Scheme)
	i := strings.Index(rest, "/")
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

// resolve reports whether location is a file on disk, or else the object
// it names.
func (s *Storage) resolve(location string) (local os.FileInfo, bucket, key string, err error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, "", "", ErrEmptyLocation
	}

	bucket, key, isS3 := ParseLocation(location)
	if !isS3 {
		if fi, err := os.Stat(location); err == nil {
			return fi, "", "", nil
		} else if !os.IsNotExist(err) {
			return nil, "", "", err
		}
		if s.remote == nil || s.bucket == "" {
			return nil, "", "", fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		bucket, key = s.bucket, strings.TrimPrefix(location, "/")
	}
	if s.remote == nil {
		return nil, "", "", fmt.Errorf("%w: no object store for %s", ErrNotFound, location)
	}
	return nil, bucket, key, nil
}

// Version identifies the current content of location: size and modification
// time for a local file, the ETag for an object. It changes when the file is
// replaced.
func (s *Storage) Version(ctx context.Context, location string) (string, error) {
	fi, bucket, key, err := s.resolve(location)
	if err != nil {
		return "", err
	}
	if fi != nil {
		return fmt.Sprintf("%d-%d", fi.Size(), fi.ModTime().UnixNano()), nil
	}
	return s.remote.ETag(ctx, bucket, key)
}

// Fetch makes location available on the local filesystem.
func (s *Storage) Fetch(ctx context.Context, location string) (*Local, error) {
	fi, bucket, key, err := s.resolve(location)
	if err != nil {
		return nil, err
	}
	if fi != nil {
		return &Local{Path: strings.TrimSpace(location)}, nil
	}

	if err := os.MkdirAll(s.workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	dst := filepath.Join(s.workDir, uuid.NewString()+"-"+path.Base(key))

	f, err := os.Create(dst)
	if err != nil {
		return nil, err
	}
	n, err := s.remote.Download(ctx, bucket, key, f)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}

	s.logger.Debug("downloaded object", map[string]interface{}{
		"bucket": bucket,
		"key":    key,
		"bytes":  n,
	})
	return &Local{Path: dst, downloaded: true}, nil
}

// Put uploads the local file to key in bucket (the default bucket when empty)
// and returns its s3:// location.
func (s *Storage) Put(ctx context.Context, localPath, bucket, key, contentType string) (string, error) {
	if bucket == "" {
		bucket = s.bucket
	}
	if bucket == "" || s.remote == nil {
		return "", ErrNoBucket
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := s.remote.Upload(ctx, bucket, key, contentType, f); err != nil {
		return "", err
	}
	return s3Scheme + bucket + "/" + key, nil
}
