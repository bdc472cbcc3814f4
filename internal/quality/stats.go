package quality

import "math"

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func roundMetrics(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = round4(v)
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)))
}

// cv is the coefficient of variation; 0 when the mean is 0.
func cv(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	return stddev(values) / m
}

// withinLimit scores 1 at or below limit and limit/value above it.
func withinLimit(value, limit float64) float64 {
	if value <= limit {
		return 1
	}
	return limit / value
}

// bandScore is 1 inside [idealMin, idealMax], falls linearly to 0 at the
// absolute bounds, and is 0 outside them.
func bandScore(v, absMin, idealMin, idealMax, absMax float64) float64 {
	switch {
	case v >= idealMin && v <= idealMax:
		return 1
	case v < idealMin:
		if v <= absMin {
			return 0
		}
		return (v - absMin) / (idealMin - absMin)
	default:
		if v >= absMax {
			return 0
		}
		return (absMax - v) / (absMax - idealMax)
	}
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
