package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"captionsync/internal/media/ffprobe"
	"captionsync/internal/services"
)

const sampleTranscript = `{
  "segments": [
    {"text": "Hello world", "start": 0.1, "end": 0.8, "words": [
      {"word": "Hello", "start": 0.1, "end": 0.3, "score": 0.91},
      {"word": "world", "start": 0.6, "end": 0.8, "score": 0.88}
    ]},
    {"text": "in 2024", "start": 1.0, "end": 1.6, "words": [
      {"word": "in", "start": 1.0, "end": 1.1},
      {"word": "2024"}
    ]}
  ]
}`

func TestBuildArgsCPU(t *testing.T) {
	svc := NewService(Config{Language: "en-US"}, "")
	args := svc.buildArgs("/tmp/audio.wav", "/tmp/out")

	for _, want := range []string{"whisperx", "/tmp/audio.wav", "--output_format", "json", "--device", "cpu"} {
		if !slices.Contains(args, want) {
			t.Fatalf("expected %q in args %v", want, args)
		}
	}
	idx := slices.Index(args, "--language")
	if idx < 0 || args[idx+1] != "en" {
		t.Fatalf("expected --language en, got %v", args)
	}
	if slices.Contains(args, "--hf_token") {
		t.Fatal("silero VAD must not pass a token")
	}
}

func TestBuildArgsCUDAWithPyannote(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf_x", Model: "small"}, "")
	args := svc.buildArgs("a.wav", "out")
	if args[1] != CUDAIndexURL {
		t.Fatalf("expected CUDA index url first, got %v", args[:2])
	}
	if i := slices.Index(args, "--hf_token"); i < 0 || args[i+1] != "hf_x" {
		t.Fatalf("expected hf token, got %v", args)
	}
	if i := slices.Index(args, "--model"); args[i+1] != "small" {
		t.Fatalf("expected model small, got %v", args)
	}
	if svc.Name() != "whisperx/small" {
		t.Fatalf("Name() = %q", svc.Name())
	}
}

func TestWordsDropsUntimedWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.json")
	if err := os.WriteFile(path, []byte(sampleTranscript), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	segments, err := LoadSegments(path)
	if err != nil {
		t.Fatalf("LoadSegments: %v", err)
	}
	words := Words(segments)
	if len(words) != 3 {
		t.Fatalf("got %d words, want 3", len(words))
	}
	if words[0].Text != "Hello" || words[0].Confidence != 0.91 {
		t.Fatalf("unexpected first word: %+v", words[0])
	}
	if words[2].Text != "in" || words[2].Confidence != 1 {
		t.Fatalf("missing score should default to 1: %+v", words[2])
	}
}

func TestTranscribeRunsExtractionThenWhisperX(t *testing.T) {
	var calls []string
	svc := NewService(Config{WorkDir: t.TempDir()}, "ffmpeg-test")
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		calls = append(calls, name)
		if name == UVXCommand {
			outDir := args[slices.Index(args, "--output_dir")+1]
			return os.WriteFile(filepath.Join(outDir, "audio.json"), []byte(sampleTranscript), 0o644)
		}
		return nil
	})

	words, err := svc.Transcribe(context.Background(), "/videos/clip.mp4")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("got %d words, want 3", len(words))
	}
	if !slices.Equal(calls, []string{"ffmpeg-test", UVXCommand}) {
		t.Fatalf("unexpected call order: %v", calls)
	}
}

func TestTranscribeFailureIsExternalToolError(t *testing.T) {
	svc := NewService(Config{WorkDir: t.TempDir()}, "")
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	_, err := svc.Transcribe(context.Background(), "/videos/clip.mp4")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestTranscribeRequiresPath(t *testing.T) {
	_, err := NewService(Config{}, "").Transcribe(context.Background(), " ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTranscribeMapsSelectedDialogueTrack(t *testing.T) {
	var extractArgs []string
	svc := NewService(Config{WorkDir: t.TempDir(), Language: "en"}, "ffmpeg-test")
	svc.WithStreamProbe(func(context.Context, string) ([]ffprobe.Stream, error) {
		return []ffprobe.Stream{
			{Index: 0, CodecType: "video"},
			{Index: 1, CodecType: "audio", Channels: 2, Tags: map[string]string{"language": "eng", "title": "Commentary"}},
			{Index: 2, CodecType: "audio", Channels: 6, Tags: map[string]string{"language": "eng"}},
		}, nil
	})
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name == UVXCommand {
			outDir := args[slices.Index(args, "--output_dir")+1]
			return os.WriteFile(filepath.Join(outDir, "audio.json"), []byte(sampleTranscript), 0o644)
		}
		extractArgs = args
		return nil
	})
	if _, err := svc.Transcribe(context.Background(), "/videos/clip.mkv"); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	i := slices.Index(extractArgs, "-map")
	if i < 0 || extractArgs[i+1] != "0:a:1" {
		t.Fatalf("expected -map 0:a:1, got %v", extractArgs)
	}
}

func TestTranscribeRejectsVideoWithoutAudio(t *testing.T) {
	svc := NewService(Config{WorkDir: t.TempDir()}, "")
	svc.WithStreamProbe(func(context.Context, string) ([]ffprobe.Stream, error) {
		return []ffprobe.Stream{{Index: 0, CodecType: "video"}}, nil
	})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		t.Fatal("no command should run without an audio stream")
		return nil
	})
	_, err := svc.Transcribe(context.Background(), "/videos/silent.mp4")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
