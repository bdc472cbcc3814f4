package frames

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"captionsync/internal/caption"
	"captionsync/internal/services"
)

const filePattern = "frame_%06d.png"

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Sampler extracts frames at a fixed rate.
type Sampler struct {
	binary string
	// MaxWidth downscales wider frames before OCR; 0 keeps the source size.
	maxWidth int
	runner   CommandRunner
}

// NewSampler returns a sampler that runs the given ffmpeg binary.
func NewSampler(binary string, maxWidth int) *Sampler {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Sampler{binary: binary, maxWidth: maxWidth}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Sampler) WithCommandRunner(runner CommandRunner) {
	s.runner = runner
}

// Sample writes frames of videoPath into dir at fps frames per second and
// returns them in time order. Frame n is stamped n/fps seconds.
func (s *Sampler) Sample(ctx context.Context, videoPath string, fps float64, dir string) ([]caption.Frame, error) {
	if fps <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "sample", "frames", fmt.Sprintf("invalid fps %v", fps), nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "sample", "frames", "create frame dir", err)
	}
	if err := s.run(ctx, s.binary, s.buildArgs(videoPath, fps, dir)...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "sample", "ffmpeg", videoPath, err)
	}

	frames, err := collect(dir, fps)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "sample", "collect frames", videoPath, err)
	}
	if len(frames) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "sample", "ffmpeg", videoPath+" produced no frames", nil)
	}
	return frames, nil
}

func (s *Sampler) buildArgs(videoPath string, fps float64, dir string) []string {
	filter := "fps=" + strconv.FormatFloat(fps, 'f', -1, 64)
	if s.maxWidth > 0 {
		filter += fmt.Sprintf(",scale='min(%d,iw)':-2", s.maxWidth)
	}
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-i", videoPath,
		"-an",
		"-vf", filter,
		"-start_number", "0",
		filepath.Join(dir, filePattern),
	}
}

func (s *Sampler) run(ctx context.Context, name string, args ...string) error {
	if s.runner != nil {
		return s.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func collect(dir string, fps float64) ([]caption.Frame, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	if err != nil {
		return nil, err
	}
	frames := make([]caption.Frame, 0, len(matches))
	for _, path := range matches {
		var index int
		if _, err := fmt.Sscanf(filepath.Base(path), filePattern, &index); err != nil {
			continue
		}
		frames = append(frames, caption.Frame{
			Index:   index,
			TimeSec: float64(index) / fps,
			Path:    path,
		})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].Index < frames[j].Index })
	return frames, nil
}
