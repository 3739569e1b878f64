package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"candidate-evaluator/internal/common/database"
	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/extract"
	"candidate-evaluator/internal/storage"

	"github.com/redis/go-redis/v9"
)

// TextExtractor turns a local document into text; *extract.Extractor satisfies it.
type TextExtractor interface {
	File(path string) (string, error)
}

var _ TextExtractor = (*extract.Extractor)(nil)

// ResumeFiles fetches resumes and reports their current version;
// *storage.Storage satisfies it.
type ResumeFiles interface {
	Fetcher
	Version(ctx context.Context, location string) (string, error)
}

var _ ResumeFiles = (*storage.Storage)(nil)

// ResumeReader resolves a resume location and extracts its text. Extracted
// text is kept in Redis so screening and question generation read the
// document once.
type ResumeReader struct {
	files     ResumeFiles
	extractor TextExtractor
	redis     *redis.Client
	ttl       time.Duration
	logger    logger.Logger
}

// NewResumeReader returns a ResumeReader. rdb may be nil and ttl <= 0
// disables the cache.
func NewResumeReader(files ResumeFiles, extractor TextExtractor, rdb *redis.Client, ttl time.Duration, log logger.Logger) *ResumeReader {
	return &ResumeReader{
		files:     files,
		extractor: extractor,
		redis:     rdb,
		ttl:       ttl,
		logger:    log.WithFields(map[string]interface{}{"component": "resume-reader"}),
	}
}

// Read returns the text of the resume stored at location.
func (r *ResumeReader) Read(ctx context.Context, location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", errors.NewResumeExtractionFailedError(location, stderrors.New("no resume uploaded"))
	}

	// The key carries the file's version so a re-upload is read afresh.
	var key string
	if r.cacheEnabled() {
		version, err := r.files.Version(ctx, location)
		if err != nil {
			r.logger.Warn("resume version lookup failed", map[string]interface{}{"error": err.Error()})
		} else {
			key = resumeCacheKey(location, version)
		}
	}
	if key != "" {
		var text string
		found, err := database.GetJSON(ctx, r.redis, key, &text)
		if err != nil {
			r.logger.Warn("resume cache read failed", map[string]interface{}{"error": err.Error()})
		}
		if found {
			return text, nil
		}
	}

	local, err := r.files.Fetch(ctx, location)
	if err != nil {
		return "", errors.NewStorageFetchFailedError(location, err)
	}
	defer local.Release()

	text, err := r.extractor.File(local.Path)
	if err != nil {
		return "", errors.NewResumeExtractionFailedError(location, err)
	}

	if key != "" {
		if err := database.SetJSON(ctx, r.redis, key, text, r.ttl); err != nil {
			r.logger.Warn("resume cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return text, nil
}

func (r *ResumeReader) cacheEnabled() bool {
	return r.redis != nil && r.ttl > 0
}

func resumeCacheKey(location, version string) string {
	sum := sha256.Sum256([]byte(location + "\x00" + version))
	return fmt.Sprintf("resume:text:%s", hex.EncodeToString(sum[:16]))
}
