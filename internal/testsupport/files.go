package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"captionsync/internal/caption"
	"captionsync/internal/engine"
)

// HelloObservations is a one-second clip whose captions "HELLO" and
// "HELLO WORLD" appear exactly when each word is spoken.
func HelloObservations() engine.Observations {
	const fps = 10.0
	box := caption.BBox{CenterX: 0.5, CenterY: 0.85, Width: 0.4, Height: 0.06}
	frames := make([]caption.OcrObservation, 10)
	for i := range frames {
		frames[i] = caption.OcrObservation{FrameIndex: i, TimeSec: float64(i) / fps}
		switch {
		case i >= 1 && i <= 5:
			frames[i].RawText = "HELLO"
		case i >= 6:
			frames[i].RawText = "HELLO WORLD"
		default:
			continue
		}
		frames[i].Confidence = 0.95
		frames[i].BBox = box
	}
	return engine.Observations{
		VideoName:   "hello.mp4",
		DurationSec: 1.0,
		SampleFPS:   fps,
		OCREngine:   "fixture",
		ASREngine:   "fixture",
		AsrWords: []caption.AsrWord{
			{Text: "hello", StartSec: 0.1, EndSec: 0.3, Confidence: 0.95},
			{Text: "world", StartSec: 0.6, EndSec: 0.8, Confidence: 0.95},
		},
		OcrObservations: frames,
	}
}

// WriteObservations saves obs at path, creating parent directories.
func WriteObservations(t testing.TB, path string, obs engine.Observations) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := engine.SaveObservations(path, obs); err != nil {
		t.Fatalf("save observations: %v", err)
	}
	return path
}
