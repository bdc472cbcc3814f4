package history

import "math"

// Stability summarizes how much repeated ratings of one input disagree.
type Stability struct {
	Runs       int
	MinRating  float64
	MaxRating  float64
	MaxDelta   float64
	MaxQuality float64
	MinQuality float64
}

// QualityDelta is the spread of overall caption quality scores.
func (s Stability) QualityDelta() float64 {
	return s.MaxQuality - s.MinQuality
}

// Stable reports whether every pairwise rating difference is within epsilon.
func (s Stability) Stable(epsilon float64) bool {
	return s.MaxDelta <= epsilon
}

// Measure computes the spread of ratings across runs.
func Measure(runs []Run) Stability {
	if len(runs) == 0 {
		return Stability{}
	}
	st := Stability{
		Runs:       len(runs),
		MinRating:  math.Inf(1),
		MaxRating:  math.Inf(-1),
		MinQuality: math.Inf(1),
		MaxQuality: math.Inf(-1),
	}
	for _, r := range runs {
		st.MinRating = math.Min(st.MinRating, r.Rating)
		st.MaxRating = math.Max(st.MaxRating, r.Rating)
		st.MinQuality = math.Min(st.MinQuality, r.QualityScore)
		st.MaxQuality = math.Max(st.MaxQuality, r.QualityScore)
	}
	st.MaxDelta = st.MaxRating - st.MinRating
	return st
}
