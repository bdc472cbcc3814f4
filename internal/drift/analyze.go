package drift

import (
	"fmt"
	"math"

	"captionsync/internal/matcher"
)

// ErrorType names a classified sync failure mode.
type ErrorType string

// Severity grades a classified error.
type Severity string

const (
	ErrorLowMatchRatio  ErrorType = "low_match_ratio"
	ErrorGlobalOffset   ErrorType = "global_offset"
	ErrorSporadicErrors ErrorType = "sporadic_errors"

	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Error is a diagnostic finding. It explains a rating; it never feeds back
// into one.
type Error struct {
	Type     ErrorType `json:"type"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// Config holds every threshold used by classification and rating.
type Config struct {
	LowMatchRatio          float64 `toml:"low_match_ratio"`
	FullMatchRatio         float64 `toml:"full_match_ratio"`
	MatchFactorFloor       float64 `toml:"match_factor_floor"`
	DirectionToleranceMs   float64 `toml:"direction_tolerance_ms"`
	GlobalOffsetRatio      float64 `toml:"global_offset_ratio"`
	GlobalOffsetMinSamples int     `toml:"global_offset_min_samples"`
	OutlierMADMultiplier   float64 `toml:"outlier_mad_multiplier"`
	OutlierFloorMs         float64 `toml:"outlier_floor_ms"`
	SporadicMaxStdDevMs    float64 `toml:"sporadic_max_stddev_ms"`
	TrimFraction           float64 `toml:"trim_fraction"`
	PenaltyStartMs         float64 `toml:"penalty_start_ms"`
	PenaltyFullMs          float64 `toml:"penalty_full_ms"`
	MedianPenalty          float64 `toml:"median_penalty"`
	RobustMaxPenalty       float64 `toml:"robust_max_penalty"`
}

// DefaultConfig returns the tuned thresholds.
func DefaultConfig() Config {
	return Config{
		LowMatchRatio:          0.7,
		FullMatchRatio:         0.9,
		MatchFactorFloor:       0.8,
		DirectionToleranceMs:   100,
		GlobalOffsetRatio:      0.9,
		GlobalOffsetMinSamples: 3,
		OutlierMADMultiplier:   3,
		OutlierFloorMs:         300,
		SporadicMaxStdDevMs:    250,
		TrimFraction:           0.1,
		PenaltyStartMs:         500,
		PenaltyFullMs:          3000,
		MedianPenalty:          30,
		RobustMaxPenalty:       20,
	}
}

// Validate reports thresholds that would make the rating undefined.
func (c Config) Validate() error {
	switch {
	case c.LowMatchRatio <= 0 || c.LowMatchRatio >= c.FullMatchRatio || c.FullMatchRatio > 1:
		return fmt.Errorf("match ratio thresholds must satisfy 0 < low (%v) < full (%v) <= 1", c.LowMatchRatio, c.FullMatchRatio)
	case c.MatchFactorFloor <= 0 || c.MatchFactorFloor > 1:
		return fmt.Errorf("match_factor_floor must be in (0,1], got %v", c.MatchFactorFloor)
	case c.PenaltyFullMs <= c.PenaltyStartMs:
		return fmt.Errorf("penalty_full_ms (%v) must exceed penalty_start_ms (%v)", c.PenaltyFullMs, c.PenaltyStartMs)
	case c.MedianPenalty < 0 || c.RobustMaxPenalty < 0 || c.MedianPenalty+c.RobustMaxPenalty > 100:
		return fmt.Errorf("drift penalties must be non-negative and sum to at most 100")
	case c.TrimFraction < 0 || c.TrimFraction >= 1:
		return fmt.Errorf("trim_fraction must be in [0,1), got %v", c.TrimFraction)
	case c.OutlierMADMultiplier <= 0 || c.OutlierFloorMs <= 0:
		return fmt.Errorf("outlier thresholds must be positive")
	case c.GlobalOffsetRatio <= 0 || c.GlobalOffsetRatio > 1:
		return fmt.Errorf("global_offset_ratio must be in (0,1], got %v", c.GlobalOffsetRatio)
	}
	return nil
}

// Metrics summarizes drift over matched words. Unsigned figures use |d|.
type Metrics struct {
	SampleCount         int     `json:"sampleCount"`
	MeanDriftMs         float64 `json:"meanDriftMs"`
	MedianDriftMs       float64 `json:"medianDriftMs"`
	MaxDriftMs          float64 `json:"maxDriftMs"`
	RobustMaxDriftMs    float64 `json:"robustMaxDriftMs"`
	P95DriftMs          float64 `json:"p95DriftMs"`
	MeanSignedDriftMs   float64 `json:"meanSignedDriftMs"`
	MedianSignedDriftMs float64 `json:"medianSignedDriftMs"`
	DriftStdDev         float64 `json:"driftStdDev"`
	MADMs               float64 `json:"madMs"`
	LeadingRatio        float64 `json:"leadingRatio"`
	LaggingRatio        float64 `json:"laggingRatio"`
	OutlierCount        int     `json:"outlierCount"`
	InlierStdDevMs      float64 `json:"inlierStdDevMs"`
}

// Analysis is the drift stage output.
type Analysis struct {
	MatchRatio  float64 `json:"matchRatio"`
	MatchFactor float64 `json:"matchFactor"`
	Penalty     float64 `json:"penalty"`
	Rating      float64 `json:"rating"`
	Metrics     Metrics `json:"metrics"`
	Errors      []Error `json:"errors"`
}

// Samples extracts signed drift values from matched pairs.
func Samples(matches []matcher.WordMatch) []float64 {
	samples := make([]float64, 0, len(matches))
	for _, m := range matches {
		if m.Matched() {
			samples = append(samples, m.DriftMs)
		}
	}
	return samples
}

// Analyze computes drift metrics, classifies errors, and rates sync.
func Analyze(matches []matcher.WordMatch, matchRatio float64, cfg Config) Analysis {
	return AnalyzeSamples(Samples(matches), matchRatio, cfg)
}

// AnalyzeSamples is Analyze over raw signed drift values.
func AnalyzeSamples(samples []float64, matchRatio float64, cfg Config) Analysis {
	if math.IsNaN(matchRatio) {
		matchRatio = 0
	}
	matchRatio = clamp(matchRatio, 0, 1)

	metrics := computeMetrics(samples, cfg)
	factor := MatchFactor(matchRatio, cfg)
	penalty := Penalty(metrics, cfg)
	rating := round1(clamp((100-penalty)*factor, 0, 100))

	return Analysis{
		MatchRatio:  matchRatio,
		MatchFactor: factor,
		Penalty:     penalty,
		Rating:      rating,
		Metrics:     metrics,
		Errors:      classify(metrics, matchRatio, cfg),
	}
}

func computeMetrics(samples []float64, cfg Config) Metrics {
	m := Metrics{SampleCount: len(samples)}
	if len(samples) == 0 {
		return m
	}

	signed := sortedCopy(samples)
	abs := make([]float64, len(signed))
	leading, lagging := 0, 0
	for i, d := range signed {
		abs[i] = math.Abs(d)
		switch {
		case d < -cfg.DirectionToleranceMs:
			leading++
		case d > cfg.DirectionToleranceMs:
			lagging++
		}
	}
	abs = sortedCopy(abs)
	n := float64(len(signed))

	m.MeanDriftMs = mean(abs)
	m.MedianDriftMs = median(abs)
	m.MaxDriftMs = abs[len(abs)-1]
	m.P95DriftMs = percentile(abs, 95)
	m.MeanSignedDriftMs = mean(signed)
	m.MedianSignedDriftMs = median(signed)
	m.DriftStdDev = stddev(signed)
	m.LeadingRatio = float64(leading) / n
	m.LaggingRatio = float64(lagging) / n

	deviations := make([]float64, len(signed))
	for i, d := range signed {
		deviations[i] = math.Abs(d - m.MedianSignedDriftMs)
	}
	m.MADMs = median(sortedCopy(deviations))

	threshold := math.Max(cfg.OutlierMADMultiplier*m.MADMs, cfg.OutlierFloorMs)
	inliers := make([]float64, 0, len(signed))
	inlierAbs := make([]float64, 0, len(signed))
	for i, d := range signed {
		if deviations[i] > threshold {
			m.OutlierCount++
			continue
		}
		inliers = append(inliers, d)
		inlierAbs = append(inlierAbs, math.Abs(d))
	}
	m.InlierStdDevMs = stddev(inliers)
	// Outliers count toward OutlierCount and MaxDriftMs only.
	m.RobustMaxDriftMs = trimmedMax(sortedCopy(inlierAbs), cfg.TrimFraction)
	return m
}

// MatchFactor scales the drift rating by how much of the speech was seen on
// screen: 1 at or above FullMatchRatio, linear down to MatchFactorFloor at
// LowMatchRatio, and quadratic toward zero below it.
func MatchFactor(ratio float64, cfg Config) float64 {
	switch {
	case ratio >= cfg.FullMatchRatio:
		return 1
	case ratio >= cfg.LowMatchRatio:
		slope := (1 - cfg.MatchFactorFloor) / (cfg.FullMatchRatio - cfg.LowMatchRatio)
		return cfg.MatchFactorFloor + (ratio-cfg.LowMatchRatio)*slope
	case ratio <= 0:
		return 0
	default:
		r := ratio / cfg.LowMatchRatio
		return cfg.MatchFactorFloor * r * r
	}
}

// Penalty is the drift deduction from 100.
func Penalty(m Metrics, cfg Config) float64 {
	return cfg.MedianPenalty*ramp(m.MedianDriftMs, cfg) + cfg.RobustMaxPenalty*ramp(m.RobustMaxDriftMs, cfg)
}

func ramp(v float64, cfg Config) float64 {
	return clamp((v-cfg.PenaltyStartMs)/(cfg.PenaltyFullMs-cfg.PenaltyStartMs), 0, 1)
}

func classify(m Metrics, matchRatio float64, cfg Config) []Error {
	errs := make([]Error, 0, 3)
	if matchRatio < cfg.LowMatchRatio {
		errs = append(errs, Error{
			Type:     ErrorLowMatchRatio,
			Severity: SeverityCritical,
			Message: fmt.Sprintf("only %.0f%% of spoken words were found on screen (minimum %.0f%%)",
				matchRatio*100, cfg.LowMatchRatio*100),
		})
	}
	if m.SampleCount >= cfg.GlobalOffsetMinSamples {
		switch {
		case m.LeadingRatio >= cfg.GlobalOffsetRatio:
			errs = append(errs, Error{
				Type:     ErrorGlobalOffset,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("captions consistently lead audio by a median of %.0fms (%.0f%% of words)",
					-m.MedianSignedDriftMs, m.LeadingRatio*100),
			})
		case m.LaggingRatio >= cfg.GlobalOffsetRatio:
			errs = append(errs, Error{
				Type:     ErrorGlobalOffset,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("captions consistently lag audio by a median of %.0fms (%.0f%% of words)",
					m.MedianSignedDriftMs, m.LaggingRatio*100),
			})
		}
	}
	if m.OutlierCount >= 1 && m.InlierStdDevMs <= cfg.SporadicMaxStdDevMs {
		errs = append(errs, Error{
			Type:     ErrorSporadicErrors,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("%d isolated desync event(s) (max %.0fms) while remaining words stay within %.0fms std-dev",
				m.OutlierCount, m.MaxDriftMs, m.InlierStdDevMs),
		})
	}
	return errs
}

// HasError reports whether errs contains the given type.
func HasError(errs []Error, t ErrorType) bool {
	for _, e := range errs {
		if e.Type == t {
			return true
		}
	}
	return false
}
