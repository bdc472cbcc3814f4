package quality

import (
	"fmt"

	"captionsync/internal/caption"
	"captionsync/internal/pacing"
)

// Input is everything the scorer needs for one video.
type Input struct {
	Frames           []caption.OcrObservation
	DurationSec      float64
	FrameIntervalSec float64
	// Pacing is optional; when present the rhythm factor accounts for chunks
	// that are too fast to read.
	Pacing *pacing.Report
}

// SubScore is one factor's result.
type SubScore struct {
	Name    string             `json:"name"`
	Weight  float64            `json:"weight"`
	Score   float64            `json:"score"`
	Metrics map[string]float64 `json:"metrics"`
}

// Overall is the weighted verdict.
type Overall struct {
	Score  float64 `json:"score"`
	Passed bool    `json:"passed"`
}

// Report is the quality scorer output.
type Report struct {
	Thresholds Thresholds `json:"thresholds"`
	Weights    Weights    `json:"weights"`
	SubScores  []SubScore `json:"subScores"`
	Overall    Overall    `json:"overall"`
}

// SubScore returns the named factor result.
func (r Report) SubScore(name string) (SubScore, bool) {
	for _, s := range r.SubScores {
		if s.Name == name {
			return s, true
		}
	}
	return SubScore{}, false
}

type factorFunc func(v *view, th Thresholds) (float64, map[string]float64)

type factor struct {
	name  string
	score factorFunc
}

var factorTable = []factor{
	{FactorRhythm, scoreRhythm},
	{FactorDisplayTime, scoreDisplayTime},
	{FactorCoverage, scoreCoverage},
	{FactorDensity, scoreDensity},
	{FactorPunctuation, scorePunctuation},
	{FactorCapitalization, scoreCapitalization},
	{FactorSafeArea, scoreSafeArea},
	{FactorOCRConfidence, scoreOCRConfidence},
	{FactorFlicker, scoreFlicker},
	{FactorAlignment, scoreAlignment},
	{FactorPlacement, scorePlacement},
	{FactorJitter, scoreJitter},
	{FactorStyle, scoreStyle},
	{FactorRedundancy, scoreRedundancy},
	{FactorSegmentation, scoreSegmentation},
}

// Scorer evaluates the factor table with fixed thresholds and weights.
type Scorer struct {
	thresholds Thresholds
	weights    Weights
}

// NewScorer validates thresholds and weights.
func NewScorer(th Thresholds, w Weights) (*Scorer, error) {
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("quality thresholds: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("quality weights: %w", err)
	}
	return &Scorer{thresholds: th, weights: w.clone()}, nil
}

// Thresholds returns the scorer's thresholds.
func (s *Scorer) Thresholds() Thresholds {
	return s.thresholds
}

// Score evaluates every factor. With no visible captions every factor scores
// zero and the report does not pass.
func (s *Scorer) Score(in Input) Report {
	v := newView(in)
	report := Report{
		Thresholds: s.thresholds,
		Weights:    s.weights.clone(),
		SubScores:  make([]SubScore, 0, len(factorTable)),
	}

	total := 0.0
	for _, f := range factorTable {
		score, metrics := 0.0, map[string]float64{}
		if len(v.pages) > 0 {
			score, metrics = f.score(v, s.thresholds)
			score = clamp01(score)
		}
		weight := s.weights[f.name]
		total += weight * score
		report.SubScores = append(report.SubScores, SubScore{
			Name:    f.name,
			Weight:  weight,
			Score:   round4(score),
			Metrics: roundMetrics(metrics),
		})
	}
	report.Overall.Score = round4(clamp01(total))

	if len(v.pages) > 0 {
		coverage, _ := report.SubScore(FactorCoverage)
		flicker, _ := report.SubScore(FactorFlicker)
		pass := s.thresholds.Pass
		report.Overall.Passed = report.Overall.Score >= pass.MinOverall &&
			coverage.Metrics["coverageRatio"] >= pass.MinCoverageRatio &&
			int(flicker.Metrics["flickerEvents"]) <= pass.MaxFlickerEvents
	}
	return report
}
