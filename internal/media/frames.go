package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const defaultSampleRate = 30

// FrameSampler writes every Nth frame of a video to PNG files.
type FrameSampler struct {
	runner  Runner
	ffmpeg  string
	workDir string
}

func NewFrameSampler(ffmpegPath, workDir string, runner Runner) *FrameSampler {
	if runner == nil {
		runner = ExecRunner{}
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &FrameSampler{runner: runner, ffmpeg: ffmpegPath, workDir: workDir}
}

// Frames is a set of sampled frames in video order. Cleanup removes them.
type Frames struct {
	Paths []string
	dir   string
}

func (f *Frames) Cleanup() {
	if f != nil && f.dir != "" {
		_ = os.RemoveAll(f.dir)
	}
}

// Sample keeps frames N, 2N, 3N... counting from 1.
func (s *FrameSampler) Sample(ctx context.Context, videoPath string, every int) (*Frames, error) {
	if every <= 0 {
		every = defaultSampleRate
	}
	if err := os.MkdirAll(s.workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	dir, err := os.MkdirTemp(s.workDir, "frames-")
	if err != nil {
		return nil, err
	}
	frames := &Frames{dir: dir}

	_, err = s.runner.Run(ctx, s.ffmpeg,
		"-y", "-i", videoPath,
		"-vf", fmt.Sprintf(`select=not(mod(n+1\,%d))`, every),
		"-vsync", "vfr",
		filepath.Join(dir, "frame-%06d.png"),
	)
	if err != nil {
		frames.Cleanup()
		return nil, fmt.Errorf("sample frames: %w", err)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "frame-*.png"))
	if err != nil {
		frames.Cleanup()
		return nil, err
	}
	sort.Strings(paths)
	frames.Paths = paths
	return frames, nil
}
