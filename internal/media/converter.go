// Package media wraps the external tools an interview recording passes
// through: ffmpeg/ffprobe, a Whisper-compatible transcriber and the face and
// emotion model server.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"candidate-evaluator/internal/common/config"
	"candidate-evaluator/internal/common/logger"

	"github.com/google/uuid"
)

var ErrNoAudio = errors.New("NO_AUDIO_EXTRACTED")

const defaultExtractTimeout = 300 * time.Second

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		tail := strings.TrimSpace(string(out))
		if len(tail) > 500 {
			tail = tail[len(tail)-500:]
		}
		return out, fmt.Errorf("%s: %w: %s", name, err, tail)
	}
	return out, nil
}

// Segment is one timed piece of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration"`
}

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Transcript, error)
}

// Converter turns an interview video into a transcript.
type Converter struct {
	runner      Runner
	transcriber Transcriber
	ffmpeg      string
	ffprobe     string
	workDir     string
	keepAudio   bool
	timeout     time.Duration
	logger      logger.Logger
}

func NewConverter(cfg config.MediaConfig, runner Runner, transcriber Transcriber, log logger.Logger) *Converter {
	c := &Converter{
		runner:      runner,
		transcriber: transcriber,
		ffmpeg:      cfg.FFmpegPath,
		ffprobe:     cfg.FFprobePath,
		workDir:     cfg.WorkDir,
		keepAudio:   cfg.KeepAudio,
		timeout:     time.Duration(cfg.ExtractTimeout) * time.Millisecond,
		logger:      log.WithFields(map[string]interface{}{"component": "converter"}),
	}
	if c.runner == nil {
		c.runner = ExecRunner{}
	}
	if c.ffmpeg == "" {
		c.ffmpeg = "ffmpeg"
	}
	if c.ffprobe == "" {
		c.ffprobe = "ffprobe"
	}
	if c.workDir == "" {
		c.workDir = os.TempDir()
	}
	if c.timeout <= 0 {
		c.timeout = defaultExtractTimeout
	}
	return c
}

// ExtractAudio writes a 16 kHz mono WAV next to the work dir and returns its path.
func (c *Converter) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	audioPath := filepath.Join(c.workDir, fmt.Sprintf("%s-%s.wav", base, uuid.NewString()[:8]))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.runner.Run(ctx, c.ffmpeg,
		"-y", "-i", videoPath,
		"-vn", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1",
		audioPath,
	)
	if err != nil {
		return "", fmt.Errorf("extract audio: %w", err)
	}
	if info, err := os.Stat(audioPath); err != nil || info.Size() == 0 {
		return "", ErrNoAudio
	}
	return audioPath, nil
}

// Duration returns the media duration in seconds as reported by ffprobe.
func (c *Converter) Duration(ctx context.Context, path string) (float64, error) {
	out, err := c.runner.Run(ctx, c.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return d, nil
}

// VideoToTranscript extracts the audio track and transcribes it.
func (c *Converter) VideoToTranscript(ctx context.Context, videoPath string) (*Transcript, error) {
	if c.transcriber == nil {
		return nil, errors.New("no transcriber configured")
	}
	start := time.Now()

	audioPath, err := c.ExtractAudio(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	if !c.keepAudio {
		defer os.Remove(audioPath)
	}

	duration, err := c.Duration(ctx, audioPath)
	if err != nil {
		c.logger.Warn("ffprobe failed, relying on transcriber duration", map[string]interface{}{"error": err.Error()})
	}

	t, err := c.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	t.Text = strings.TrimSpace(t.Text)
	if t.Duration <= 0 {
		t.Duration = duration
	}

	c.logger.Info("video transcribed", map[string]interface{}{
		"video":      filepath.Base(videoPath),
		"chars":      len(t.Text),
		"duration":   t.Duration,
		"language":   t.Language,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return t, nil
}
