package media

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"candidate-evaluator/internal/common/config"
	"candidate-evaluator/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner emulates ffmpeg/ffprobe by writing the files they would produce.
type fakeRunner struct {
	calls    [][]string
	duration string
	frames   int
	failOn   string
	noAudio  bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if name == f.failOn {
		return nil, errors.New("exit status 1")
	}

	switch {
	case strings.Contains(name, "ffprobe"):
		return []byte(f.duration + "\n"), nil
	case strings.HasSuffix(args[len(args)-1], ".wav"):
		if !f.noAudio {
			return nil, os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o600)
		}
	case strings.Contains(args[len(args)-1], "frame-%06d.png"):
		dir := filepath.Dir(args[len(args)-1])
		for i := 1; i <= f.frames; i++ {
			if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%06d.png", i)), []byte("png"), 0o600); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

type fakeTranscriber struct {
	transcript *Transcript
	err        error
	gotPath    string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	f.gotPath = audioPath
	if f.err != nil {
		return nil, f.err
	}
	t := *f.transcript
	return &t, nil
}

// ==========================
// Converter
// ==========================

func TestConverter_VideoToTranscript(t *testing.T) {
	work := t.TempDir()
	runner := &fakeRunner{duration: "42.5"}
	tr := &fakeTranscriber{transcript: &Transcript{Text: "  I build distributed systems in Go.  ", Language: "en"}}

	c := NewConverter(config.MediaConfig{WorkDir: work}, runner, tr, logger.NewTestLogger(t))
	out, err := c.VideoToTranscript(context.Background(), "/videos/interview-7.webm")
	require.NoError(t, err)

	assert.Equal(t, "I build distributed systems in Go.", out.Text)
	assert.Equal(t, 42.5, out.Duration)
	assert.Equal(t, "en", out.Language)

	require.Len(t, runner.calls, 2)
	ffmpegArgs := strings.Join(runner.calls[0], " ")
	assert.Contains(t, ffmpegArgs, "-vn -acodec pcm_s16le -ar 16000 -ac 1")
	assert.Contains(t, ffmpegArgs, "-i /videos/interview-7.webm")

	_, err = os.Stat(tr.gotPath)
	assert.True(t, os.IsNotExist(err), "audio is removed unless keep_audio")
}

func TestConverter_KeepAudioAndTranscriberDuration(t *testing.T) {
	runner := &fakeRunner{duration: "garbage"}
	tr := &fakeTranscriber{transcript: &Transcript{Text: "hello", Duration: 9}}

	c := NewConverter(config.MediaConfig{WorkDir: t.TempDir(), KeepAudio: true}, runner, tr, logger.NewTestLogger(t))
	out, err := c.VideoToTranscript(context.Background(), "v.mp4")
	require.NoError(t, err)
	assert.Equal(t, 9.0, out.Duration)

	_, err = os.Stat(tr.gotPath)
	assert.NoError(t, err)
}

func TestConverter_Failures(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		tr      *fakeTranscriber
		wantErr error
	}{
		{name: "ffmpeg fails", runner: &fakeRunner{failOn: "ffmpeg"}, tr: &fakeTranscriber{}},
		{name: "no audio produced", runner: &fakeRunner{noAudio: true}, tr: &fakeTranscriber{}, wantErr: ErrNoAudio},
		{name: "transcriber fails", runner: &fakeRunner{duration: "1"}, tr: &fakeTranscriber{err: errors.New("503")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConverter(config.MediaConfig{WorkDir: t.TempDir()}, tt.runner, tt.tr, logger.NewNoOpLogger())
			_, err := c.VideoToTranscript(context.Background(), "v.mp4")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

// ==========================
// Frame sampler
// ==========================

func TestFrameSampler_Sample(t *testing.T) {
	runner := &fakeRunner{frames: 4}
	s := NewFrameSampler("", t.TempDir(), runner)

	frames, err := s.Sample(context.Background(), "v.mp4", 30)
	require.NoError(t, err)
	require.Len(t, frames.Paths, 4)
	assert.True(t, strings.HasSuffix(frames.Paths[0], "frame-000001.png"))
	assert.Contains(t, strings.Join(runner.calls[0], " "), `select=not(mod(n+1\,30))`)

	dir := filepath.Dir(frames.Paths[0])
	frames.Cleanup()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestFrameSampler_Failure(t *testing.T) {
	s := NewFrameSampler("ffmpeg", t.TempDir(), &fakeRunner{failOn: "ffmpeg"})
	_, err := s.Sample(context.Background(), "v.mp4", 0)
	assert.Error(t, err)
}

// ==========================
// Whisper
// ==========================

func TestWhisper_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"task":"transcribe","language":"english","duration":3.5,"text":" Hello there. ","segments":[{"id":0,"start":0,"end":1.5,"text":" Hello"},{"id":1,"start":1.5,"end":3.5,"text":" there."}]}`))
	}))
	defer server.Close()

	audio := filepath.Join(t.TempDir(), "a.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o600))

	w, err := NewWhisper("k", server.URL, "")
	require.NoError(t, err)

	out, err := w.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", out.Text)
	assert.Equal(t, 3.5, out.Duration)
	assert.Equal(t, "english", out.Language)
	require.Len(t, out.Segments, 2)
	assert.Equal(t, Segment{Start: 1.5, End: 3.5, Text: "there."}, out.Segments[1])
}

// ==========================
// Vision
// ==========================

func TestVisionClient_AnalyzeFrame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/analyze-frame", r.URL.Path)
		var req frameRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		img, err := base64.StdEncoding.DecodeString(req.Image)
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(img))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"face_detected":      true,
			"landmarks":          []map[string]float64{{"x": 0.4, "y": 0.5}},
			"emotion":            " Happy ",
			"emotion_confidence": 0.91,
		})
	}))
	defer server.Close()

	v := NewVisionClient(server.URL+"/", time.Second)
	obs, err := v.AnalyzeFrame(context.Background(), []byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, obs.FaceDetected)
	assert.Equal(t, "happy", obs.Emotion)
	assert.Len(t, obs.Landmarks, 1)
}

func TestVisionClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewVisionClient(server.URL, time.Second).AnalyzeFrame(context.Background(), []byte("x"))
	assert.ErrorContains(t, err, "503")
}
