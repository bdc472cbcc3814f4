package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"captionsync/internal/caption"
	"captionsync/internal/media/audio"
	"captionsync/internal/media/ffprobe"
	"captionsync/internal/services"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// StreamProbe lists the streams of a media file.
type StreamProbe func(ctx context.Context, path string) ([]ffprobe.Stream, error)

// Service transcribes a video's audio track into timed words.
type Service struct {
	cfg           Config
	ffmpegBinary  string
	commandRunner CommandRunner
	probe         StreamProbe
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, ffmpegBinary string) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Service{
		cfg:          cfg,
		ffmpegBinary: ffmpegBinary,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// WithStreamProbe enables dialogue track selection. Without a probe the
// first audio stream is transcribed.
func (s *Service) WithStreamProbe(probe StreamProbe) {
	s.probe = probe
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// Name identifies the engine in reports.
func (s *Service) Name() string {
	return "whisperx/" + s.Model()
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Transcribe extracts the audio of videoPath, runs WhisperX with word
// alignment, and returns the aligned words in spoken order.
func (s *Service) Transcribe(ctx context.Context, videoPath string) ([]caption.AsrWord, error) {
	if strings.TrimSpace(videoPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "input", "video path required", nil)
	}
	workDir, err := os.MkdirTemp(s.cfg.WorkDir, "whisperx-")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcribe", "workdir", "", err)
	}
	if !s.cfg.KeepArtifacts {
		defer os.RemoveAll(workDir)
	}

	audioPath := filepath.Join(workDir, "audio.wav")
	track, err := s.selectTrack(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, s.ffmpegBinary, extractArgs(videoPath, audioPath, track.MapSpec())...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "extract audio", videoPath, err)
	}

	if err := s.run(ctx, UVXCommand, s.buildArgs(audioPath, workDir)...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", videoPath, err)
	}

	segments, err := LoadSegments(filepath.Join(workDir, "audio.json"))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "read transcript", videoPath, err)
	}
	return Words(segments), nil
}

// Word represents a single word with timing from WhisperX output. Start and
// End are nil when alignment could not place the word (common for numerals).
type Word struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Score *float64 `json:"score"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

// whisperXPayload is the JSON structure from WhisperX output.
type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

// Words flattens aligned segment words into ASR words. Words alignment could
// not time are dropped; a missing score becomes confidence 1.
func Words(segments []Segment) []caption.AsrWord {
	var words []caption.AsrWord
	for _, seg := range segments {
		for _, w := range seg.Words {
			text := strings.TrimSpace(w.Word)
			if text == "" || w.Start == nil {
				continue
			}
			end := *w.Start
			if w.End != nil && *w.End > end {
				end = *w.End
			}
			conf := 1.0
			if w.Score != nil && !math.IsNaN(*w.Score) {
				conf = math.Max(0, math.Min(1, *w.Score))
			}
			words = append(words, caption.AsrWord{
				Text:       text,
				StartSec:   *w.Start,
				EndSec:     end,
				Confidence: conf,
			})
		}
	}
	sort.SliceStable(words, func(i, j int) bool {
		return words[i].StartSec < words[j].StartSec
	})
	return words
}

func (s *Service) selectTrack(ctx context.Context, videoPath string) (audio.Selection, error) {
	if s.probe == nil {
		return audio.Selection{Ordinal: -1}, nil
	}
	streams, err := s.probe(ctx, videoPath)
	if err != nil {
		return audio.Selection{}, services.Wrap(services.ErrExternalTool, "transcribe", "probe audio", videoPath, err)
	}
	track := audio.Select(streams, s.cfg.Language)
	if track.Ordinal < 0 {
		return audio.Selection{}, services.Wrap(services.ErrValidation, "transcribe", "probe audio", videoPath+" has no audio stream", nil)
	}
	return track, nil
}
