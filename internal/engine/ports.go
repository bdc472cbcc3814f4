package engine

import (
	"context"

	"captionsync/internal/caption"
)

// FrameSampler decodes frames of videoPath at fps into dir.
type FrameSampler interface {
	Sample(ctx context.Context, videoPath string, fps float64, dir string) ([]caption.Frame, error)
}

// Recognizer reads caption text from one frame.
type Recognizer interface {
	Recognize(ctx context.Context, frame caption.Frame) (caption.Recognition, error)
}

// Transcriber produces word-level timings from the audio track.
type Transcriber interface {
	Transcribe(ctx context.Context, videoPath string) ([]caption.AsrWord, error)
}

// Prober reports the media duration in seconds.
type Prober interface {
	Duration(ctx context.Context, videoPath string) (float64, error)
}

// Deps are the external collaborators a full rating needs. Score works with
// a zero Deps.
type Deps struct {
	Sampler     FrameSampler
	Recognizer  Recognizer
	Transcriber Transcriber
	Prober      Prober
}

type named interface {
	Name() string
}

func nameOf(v any, fallback string) string {
	if n, ok := v.(named); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return fallback
}
