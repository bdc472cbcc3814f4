package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Factor names, in evaluation and report order.
const (
	FactorRhythm         = "rhythm"
	FactorDisplayTime    = "displayTime"
	FactorCoverage       = "coverage"
	FactorDensity        = "density"
	FactorPunctuation    = "punctuation"
	FactorCapitalization = "capitalization"
	FactorSafeArea       = "safeArea"
	FactorOCRConfidence  = "ocrConfidence"
	FactorFlicker        = "flicker"
	FactorAlignment      = "alignment"
	FactorPlacement      = "placement"
	FactorJitter         = "jitter"
	FactorStyle          = "style"
	FactorRedundancy     = "redundancy"
	FactorSegmentation   = "segmentation"
)

// weightTolerance bounds float error when checking that weights sum to 1.
const weightTolerance = 1e-9

// Weights maps factor name to its share of the overall score.
type Weights map[string]float64

// DefaultWeights favors coverage and legibility over cosmetic layout.
func DefaultWeights() Weights {
	return Weights{
		FactorRhythm:         0.08,
		FactorDisplayTime:    0.08,
		FactorCoverage:       0.12,
		FactorDensity:        0.07,
		FactorPunctuation:    0.04,
		FactorCapitalization: 0.03,
		FactorSafeArea:       0.07,
		FactorOCRConfidence:  0.08,
		FactorFlicker:        0.08,
		FactorAlignment:      0.06,
		FactorPlacement:      0.06,
		FactorJitter:         0.05,
		FactorStyle:          0.05,
		FactorRedundancy:     0.06,
		FactorSegmentation:   0.07,
	}
}

// FactorNames lists every factor in table order.
func FactorNames() []string {
	names := make([]string, len(factorTable))
	for i, f := range factorTable {
		names[i] = f.name
	}
	return names
}

// Validate checks that w names exactly the known factors, that no weight is
// negative, and that the weights sum to 1.
func (w Weights) Validate() error {
	known := make(map[string]struct{}, len(factorTable))
	var missing []string
	for _, f := range factorTable {
		known[f.name] = struct{}{}
		if _, ok := w[f.name]; !ok {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing weights for %s", strings.Join(missing, ", "))
	}

	var unknown []string
	for name := range w {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown quality factors %s", strings.Join(unknown, ", "))
	}

	sum := 0.0
	for _, f := range factorTable {
		v := w[f.name]
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s must be a non-negative number, got %v", f.name, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1, got %.12f", sum)
	}
	return nil
}

func (w Weights) clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
