package rating

import (
	"fmt"
	"sort"

	"captionsync/internal/drift"
	"captionsync/internal/matcher"
	"captionsync/internal/pacing"
	"captionsync/internal/quality"
)

// Label buckets a rating.
type Label string

const (
	LabelExcellent Label = "excellent"
	LabelGood      Label = "good"
	LabelFair      Label = "fair"
	LabelPoor      Label = "poor"
	LabelBroken    Label = "broken"
)

// Config gates pass/fail and label buckets.
type Config struct {
	MinRating       float64 `toml:"min_rating"`
	ExcellentFrom   float64 `toml:"excellent_from"`
	GoodFrom        float64 `toml:"good_from"`
	FairFrom        float64 `toml:"fair_from"`
	PoorFrom        float64 `toml:"poor_from"`
	WeakFactorBelow float64 `toml:"weak_factor_below"`
}

// DefaultConfig returns the standard gate.
func DefaultConfig() Config {
	return Config{
		MinRating:       80,
		ExcellentFrom:   90,
		GoodFrom:        75,
		FairFrom:        60,
		PoorFrom:        40,
		WeakFactorBelow: 0.6,
	}
}

// Validate checks that label buckets are ordered.
func (c Config) Validate() error {
	if c.MinRating < 0 || c.MinRating > 100 {
		return fmt.Errorf("min_rating must be in [0,100], got %v", c.MinRating)
	}
	if !(c.ExcellentFrom > c.GoodFrom && c.GoodFrom > c.FairFrom && c.FairFrom > c.PoorFrom && c.PoorFrom >= 0) {
		return fmt.Errorf("label thresholds must be strictly decreasing: excellent > good > fair > poor >= 0")
	}
	if c.WeakFactorBelow < 0 || c.WeakFactorBelow > 1 {
		return fmt.Errorf("weak_factor_below must be in [0,1]")
	}
	return nil
}

// LabelFor maps a rating onto its bucket.
func (c Config) LabelFor(rating float64) Label {
	switch {
	case rating >= c.ExcellentFrom:
		return LabelExcellent
	case rating >= c.GoodFrom:
		return LabelGood
	case rating >= c.FairFrom:
		return LabelFair
	case rating >= c.PoorFrom:
		return LabelPoor
	default:
		return LabelBroken
	}
}

// Analysis describes how the observations were gathered.
type Analysis struct {
	VideoName      string  `json:"videoName,omitempty"`
	OCREngine      string  `json:"ocrEngine"`
	ASREngine      string  `json:"asrEngine"`
	SampleFPS      float64 `json:"sampleFps"`
	DurationSec    float64 `json:"durationSec"`
	FramesSampled  int     `json:"framesSampled"`
	FramesWithText int     `json:"framesWithText"`
	FramesFailed   int     `json:"framesFailed"`
	Segments       int     `json:"segments"`
	AsrWordCount   int     `json:"asrWordCount"`
	OcrWordCount   int     `json:"ocrWordCount"`
	MatchedCount   int     `json:"matchedCount"`
}

// Output is the terminal artifact of a rating run.
type Output struct {
	Rating         float64             `json:"rating"`
	Label          Label               `json:"label"`
	Passed         bool                `json:"passed"`
	MatchRatio     float64             `json:"matchRatio"`
	Metrics        drift.Metrics       `json:"metrics"`
	Errors         []drift.Error       `json:"errors"`
	Diagnostics    []string            `json:"diagnostics"`
	WordMatches    []matcher.WordMatch `json:"wordMatches"`
	CaptionQuality quality.Report      `json:"captionQuality"`
	Pacing         pacing.Report       `json:"pacing"`
	Analysis       Analysis            `json:"analysis"`
}

// Input bundles the stage results for one video.
type Input struct {
	Match    matcher.Result
	Drift    drift.Analysis
	Quality  quality.Report
	Pacing   pacing.Report
	Analysis Analysis
}

// Combine builds the final output. The headline rating is the drift rating;
// caption quality is reported beside it and only affects Passed.
func Combine(in Input, cfg Config) Output {
	out := Output{
		Rating:         in.Drift.Rating,
		Label:          cfg.LabelFor(in.Drift.Rating),
		MatchRatio:     in.Drift.MatchRatio,
		Metrics:        in.Drift.Metrics,
		Errors:         in.Drift.Errors,
		WordMatches:    in.Match.Matches,
		CaptionQuality: in.Quality,
		Pacing:         in.Pacing,
		Analysis:       in.Analysis,
	}
	if out.Errors == nil {
		out.Errors = []drift.Error{}
	}
	if out.WordMatches == nil {
		out.WordMatches = []matcher.WordMatch{}
	}
	out.Analysis.AsrWordCount = in.Match.AsrWordCount
	out.Analysis.OcrWordCount = in.Match.OcrWordCount
	out.Analysis.MatchedCount = in.Match.MatchedCount
	out.Passed = out.Rating >= cfg.MinRating && in.Quality.Overall.Passed
	out.Diagnostics = diagnose(out, cfg)
	return out
}

// ExitCode is 0 for a passing output and 1 otherwise.
func ExitCode(out Output) int {
	if out.Passed {
		return 0
	}
	return 1
}

func diagnose(out Output, cfg Config) []string {
	notes := []string{}
	if out.Rating < cfg.MinRating {
		notes = append(notes, fmt.Sprintf("sync rating %.1f is below the %.0f minimum", out.Rating, cfg.MinRating))
	}
	if out.Analysis.FramesFailed > 0 {
		notes = append(notes, fmt.Sprintf("OCR failed on %d of %d sampled frames", out.Analysis.FramesFailed, out.Analysis.FramesSampled))
	}
	if out.Analysis.FramesSampled > 0 && out.Analysis.FramesWithText == 0 {
		notes = append(notes, "no captions were recognized in any sampled frame")
	}
	if out.Analysis.AsrWordCount == 0 {
		notes = append(notes, "no speech was transcribed")
	}

	q := out.CaptionQuality
	if !q.Overall.Passed {
		pass := q.Thresholds.Pass
		if q.Overall.Score < pass.MinOverall {
			notes = append(notes, fmt.Sprintf("caption quality %.2f is below the %.2f minimum", q.Overall.Score, pass.MinOverall))
		}
		if cov, ok := q.SubScore(quality.FactorCoverage); ok && cov.Metrics["coverageRatio"] < pass.MinCoverageRatio {
			notes = append(notes, fmt.Sprintf("captions cover %.0f%% of the video (minimum %.0f%%)",
				cov.Metrics["coverageRatio"]*100, pass.MinCoverageRatio*100))
		}
		if fl, ok := q.SubScore(quality.FactorFlicker); ok && int(fl.Metrics["flickerEvents"]) > pass.MaxFlickerEvents {
			notes = append(notes, fmt.Sprintf("%d flicker events (maximum %d)", int(fl.Metrics["flickerEvents"]), pass.MaxFlickerEvents))
		}
	}

	weak := make([]quality.SubScore, 0)
	for _, s := range q.SubScores {
		if s.Score < cfg.WeakFactorBelow {
			weak = append(weak, s)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].Score < weak[j].Score })
	for _, s := range weak {
		notes = append(notes, fmt.Sprintf("weak %s score %.2f", s.Name, s.Score))
	}

	if out.Pacing.FastChunkCount > 0 {
		notes = append(notes, fmt.Sprintf("%d of %d caption chunks are shown too briefly to read",
			out.Pacing.FastChunkCount, out.Pacing.TotalChunks))
	}
	return notes
}
