package quality

import "fmt"

// RhythmThresholds bounds comfortable words-per-second on a caption page.
type RhythmThresholds struct {
	IdealMinWPS      float64 `toml:"ideal_min_wps" json:"idealMinWps"`
	IdealMaxWPS      float64 `toml:"ideal_max_wps" json:"idealMaxWps"`
	AbsoluteMinWPS   float64 `toml:"absolute_min_wps" json:"absoluteMinWps"`
	AbsoluteMaxWPS   float64 `toml:"absolute_max_wps" json:"absoluteMaxWps"`
	FastChunkPenalty float64 `toml:"fast_chunk_penalty" json:"fastChunkPenalty"`
}

// DisplayTimeThresholds bounds how long one page should stay on screen.
type DisplayTimeThresholds struct {
	MinMs   float64 `toml:"min_ms" json:"minMs"`
	MaxMs   float64 `toml:"max_ms" json:"maxMs"`
	FlashMs float64 `toml:"flash_ms" json:"flashMs"`
}

// DensityThresholds limits text per page.
type DensityThresholds struct {
	MaxLines        int `toml:"max_lines" json:"maxLines"`
	MaxCharsPerLine int `toml:"max_chars_per_line" json:"maxCharsPerLine"`
}

// SafeAreaThresholds are the margins, as frame ratios, that platform UI covers.
type SafeAreaThresholds struct {
	Top    float64 `toml:"top" json:"top"`
	Bottom float64 `toml:"bottom" json:"bottom"`
	Left   float64 `toml:"left" json:"left"`
	Right  float64 `toml:"right" json:"right"`
}

// ConfidenceThresholds maps mean OCR confidence onto [0,1].
type ConfidenceThresholds struct {
	Floor float64 `toml:"floor" json:"floor"`
	Good  float64 `toml:"good" json:"good"`
}

// LayoutThresholds bound caption position and size stability.
type LayoutThresholds struct {
	MaxCenterDeviation float64 `toml:"max_center_deviation" json:"maxCenterDeviation"`
	MaxPositionStdDev  float64 `toml:"max_position_stddev" json:"maxPositionStdDev"`
	MaxJitter          float64 `toml:"max_jitter" json:"maxJitter"`
	MaxSizeCV          float64 `toml:"max_size_cv" json:"maxSizeCv"`
}

// PassThresholds gate Overall.Passed.
type PassThresholds struct {
	MinOverall       float64 `toml:"min_overall" json:"minOverall"`
	MinCoverageRatio float64 `toml:"min_coverage_ratio" json:"minCoverageRatio"`
	MaxFlickerEvents int     `toml:"max_flicker_events" json:"maxFlickerEvents"`
}

// Thresholds configures every factor.
type Thresholds struct {
	Rhythm          RhythmThresholds      `toml:"rhythm" json:"rhythm"`
	DisplayTime     DisplayTimeThresholds `toml:"display_time" json:"displayTime"`
	TargetCoverage  float64               `toml:"target_coverage" json:"targetCoverage"`
	Density         DensityThresholds     `toml:"density" json:"density"`
	SafeArea        SafeAreaThresholds    `toml:"safe_area" json:"safeArea"`
	Confidence      ConfidenceThresholds  `toml:"confidence" json:"confidence"`
	FlickerWindowMs float64               `toml:"flicker_window_ms" json:"flickerWindowMs"`
	Layout          LayoutThresholds      `toml:"layout" json:"layout"`
	Pass            PassThresholds        `toml:"pass" json:"pass"`
}

// DefaultThresholds targets vertical short-form video.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Rhythm: RhythmThresholds{
			IdealMinWPS:      1.5,
			IdealMaxWPS:      3.5,
			AbsoluteMinWPS:   0.5,
			AbsoluteMaxWPS:   6,
			FastChunkPenalty: 0.5,
		},
		DisplayTime:     DisplayTimeThresholds{MinMs: 700, MaxMs: 5000, FlashMs: 250},
		TargetCoverage:  0.8,
		Density:         DensityThresholds{MaxLines: 2, MaxCharsPerLine: 32},
		SafeArea:        SafeAreaThresholds{Top: 0.10, Bottom: 0.20, Left: 0.06, Right: 0.06},
		Confidence:      ConfidenceThresholds{Floor: 0.6, Good: 0.9},
		FlickerWindowMs: 600,
		Layout: LayoutThresholds{
			MaxCenterDeviation: 0.08,
			MaxPositionStdDev:  0.05,
			MaxJitter:          0.01,
			MaxSizeCV:          0.15,
		},
		Pass: PassThresholds{MinOverall: 0.7, MinCoverageRatio: 0.6, MaxFlickerEvents: 3},
	}
}

// Validate rejects thresholds that make a factor undefined.
func (t Thresholds) Validate() error {
	r := t.Rhythm
	switch {
	case !(r.AbsoluteMinWPS < r.IdealMinWPS && r.IdealMinWPS <= r.IdealMaxWPS && r.IdealMaxWPS < r.AbsoluteMaxWPS):
		return fmt.Errorf("rhythm ranges must nest: absolute_min < ideal_min <= ideal_max < absolute_max")
	case r.FastChunkPenalty < 0 || r.FastChunkPenalty > 1:
		return fmt.Errorf("rhythm.fast_chunk_penalty must be in [0,1]")
	case !(t.DisplayTime.FlashMs < t.DisplayTime.MinMs && t.DisplayTime.MinMs < t.DisplayTime.MaxMs):
		return fmt.Errorf("display_time requires flash_ms < min_ms < max_ms")
	case t.TargetCoverage <= 0 || t.TargetCoverage > 1:
		return fmt.Errorf("target_coverage must be in (0,1]")
	case t.Density.MaxLines <= 0 || t.Density.MaxCharsPerLine <= 0:
		return fmt.Errorf("density limits must be positive")
	case t.SafeArea.Top < 0 || t.SafeArea.Bottom < 0 || t.SafeArea.Left < 0 || t.SafeArea.Right < 0 ||
		t.SafeArea.Top+t.SafeArea.Bottom >= 1 || t.SafeArea.Left+t.SafeArea.Right >= 1:
		return fmt.Errorf("safe_area margins must be non-negative and leave a visible region")
	case t.Confidence.Floor >= t.Confidence.Good:
		return fmt.Errorf("confidence.floor must be below confidence.good")
	case t.FlickerWindowMs <= 0:
		return fmt.Errorf("flicker_window_ms must be positive")
	case t.Layout.MaxCenterDeviation <= 0 || t.Layout.MaxPositionStdDev <= 0 || t.Layout.MaxJitter <= 0 || t.Layout.MaxSizeCV <= 0:
		return fmt.Errorf("layout maxima must be positive")
	case t.Pass.MinOverall < 0 || t.Pass.MinOverall > 1 || t.Pass.MinCoverageRatio < 0 || t.Pass.MinCoverageRatio > 1:
		return fmt.Errorf("pass ratios must be in [0,1]")
	case t.Pass.MaxFlickerEvents < 0:
		return fmt.Errorf("pass.max_flicker_events must be non-negative")
	}
	return nil
}
