package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"captionsync/internal/caption"
	"captionsync/internal/fileutil"
	"captionsync/internal/services"
)

// Observations is everything Score needs, as gathered by Rate. It is written
// next to reports so a video can be re-rated without re-running OCR or ASR.
type Observations struct {
	VideoName       string                   `json:"videoName"`
	DurationSec     float64                  `json:"durationSec"`
	SampleFPS       float64                  `json:"sampleFps"`
	OCREngine       string                   `json:"ocrEngine"`
	ASREngine       string                   `json:"asrEngine"`
	FramesFailed    int                      `json:"framesFailed"`
	AsrWords        []caption.AsrWord        `json:"asrWords"`
	OcrObservations []caption.OcrObservation `json:"ocrObservations"`
}

// Validate rejects timings no real media can produce.
func (o Observations) Validate() error {
	if !finite(o.DurationSec) || o.DurationSec < 0 {
		return fmt.Errorf("durationSec must be a non-negative number, got %v", o.DurationSec)
	}
	if !finite(o.SampleFPS) || o.SampleFPS < 0 {
		return fmt.Errorf("sampleFps must be a non-negative number, got %v", o.SampleFPS)
	}
	if o.FramesFailed < 0 || o.FramesFailed > len(o.OcrObservations) {
		return fmt.Errorf("framesFailed %d out of range for %d observations", o.FramesFailed, len(o.OcrObservations))
	}
	for i, w := range o.AsrWords {
		if !finite(w.StartSec) || !finite(w.EndSec) || w.StartSec < 0 || w.EndSec < w.StartSec {
			return fmt.Errorf("asr word %d (%q) has invalid timing %v-%v", i, w.Text, w.StartSec, w.EndSec)
		}
	}
	for i, obs := range o.OcrObservations {
		if !finite(obs.TimeSec) || obs.TimeSec < 0 {
			return fmt.Errorf("observation %d has invalid time %v", i, obs.TimeSec)
		}
		if !finite(obs.Confidence) || obs.Confidence < 0 || obs.Confidence > 1 {
			return fmt.Errorf("observation %d has confidence %v outside [0,1]", i, obs.Confidence)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LoadObservations reads an observations file written by SaveObservations.
func LoadObservations(path string) (Observations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Observations{}, services.Wrap(services.ErrNotFound, "observations", "read", path, err)
		}
		return Observations{}, services.Wrap(services.ErrValidation, "observations", "read", path, err)
	}
	var obs Observations
	if err := json.Unmarshal(data, &obs); err != nil {
		return Observations{}, services.Wrap(services.ErrValidation, "observations", "decode", path, err)
	}
	return obs, nil
}

// SaveObservations writes obs as indented JSON.
func SaveObservations(path string, obs Observations) error {
	if err := fileutil.WriteJSONAtomic(path, obs); err != nil {
		return fmt.Errorf("write observations: %w", err)
	}
	return nil
}
