package quality

import (
	"math"

	"captionsync/internal/caption"
	"captionsync/internal/textutil"
)

func scoreSafeArea(v *view, th Thresholds) (float64, map[string]float64) {
	boxes := v.boxed()
	if len(boxes) == 0 {
		return 1, map[string]float64{"measuredFrames": 0, "violatingFrames": 0}
	}
	m := th.SafeArea
	violations := 0
	for _, f := range boxes {
		b := f.BBox
		if b.Top() < m.Top || b.Bottom() > 1-m.Bottom || b.Left() < m.Left || b.Right() > 1-m.Right {
			violations++
		}
	}
	return 1 - ratio(violations, len(boxes)), map[string]float64{
		"measuredFrames":  float64(len(boxes)),
		"violatingFrames": float64(violations),
	}
}

func scoreOCRConfidence(v *view, th Thresholds) (float64, map[string]float64) {
	frames := v.textFrames()
	values := make([]float64, 0, len(frames))
	minConf := 1.0
	for _, f := range frames {
		values = append(values, f.Confidence)
		minConf = math.Min(minConf, f.Confidence)
	}
	meanConf := mean(values)
	c := th.Confidence
	return (meanConf - c.Floor) / (c.Good - c.Floor), map[string]float64{
		"meanConfidence":   meanConf,
		"minConfidence":    minConf,
		"stddevConfidence": stddev(values),
	}
}

func scoreFlicker(v *view, th Thresholds) (float64, map[string]float64) {
	window := th.FlickerWindowMs / 1000
	lastEnd := map[string]float64{}
	events := 0
	for _, seg := range v.segments {
		seen := map[string]struct{}{}
		for _, w := range textutil.Words(seg.Text) {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			if end, ok := lastEnd[w]; ok {
				gap := seg.StartSec - end
				if gap > contiguityEpsilon && gap <= window+contiguityEpsilon {
					events++
				}
			}
			lastEnd[w] = seg.EndSec
		}
	}
	return 1 / (1 + 0.25*float64(events)), map[string]float64{
		"flickerEvents": float64(events),
	}
}

func scoreAlignment(v *view, th Thresholds) (float64, map[string]float64) {
	boxes := v.boxed()
	if len(boxes) == 0 {
		return 1, map[string]float64{"measuredFrames": 0}
	}
	aligned := 0
	deviations := make([]float64, 0, len(boxes))
	for _, f := range boxes {
		d := math.Abs(f.BBox.CenterX - 0.5)
		deviations = append(deviations, d)
		if d <= th.Layout.MaxCenterDeviation {
			aligned++
		}
	}
	share := ratio(aligned, len(boxes))
	return share, map[string]float64{
		"measuredFrames":      float64(len(boxes)),
		"alignedRatio":        share,
		"meanCenterDeviation": mean(deviations),
	}
}

func scorePlacement(v *view, th Thresholds) (float64, map[string]float64) {
	boxes := v.boxed()
	if len(boxes) == 0 {
		return 1, map[string]float64{"measuredFrames": 0}
	}
	xs := make([]float64, len(boxes))
	ys := make([]float64, len(boxes))
	for i, f := range boxes {
		xs[i] = f.BBox.CenterX
		ys[i] = f.BBox.CenterY
	}
	spread := math.Max(stddev(xs), stddev(ys))
	return withinLimit(spread, th.Layout.MaxPositionStdDev), map[string]float64{
		"measuredFrames": float64(len(boxes)),
		"centerXStdDev":  stddev(xs),
		"centerYStdDev":  stddev(ys),
	}
}

func scoreJitter(v *view, th Thresholds) (float64, map[string]float64) {
	var deltas []float64
	for _, seg := range v.segments {
		var prev *caption.BBox
		for _, idx := range seg.Frames {
			b := v.frames[idx].BBox
			if b.Empty() {
				prev = nil
				continue
			}
			if prev != nil {
				deltas = append(deltas, math.Hypot(b.CenterX-prev.CenterX, b.CenterY-prev.CenterY))
			}
			prev = &b
		}
	}
	meanDelta := mean(deltas)
	maxDelta := 0.0
	for _, d := range deltas {
		maxDelta = math.Max(maxDelta, d)
	}
	return withinLimit(meanDelta, th.Layout.MaxJitter), map[string]float64{
		"framePairs":     float64(len(deltas)),
		"meanFrameDelta": meanDelta,
		"maxFrameDelta":  maxDelta,
	}
}

func scoreStyle(v *view, th Thresholds) (float64, map[string]float64) {
	boxes := v.boxed()
	if len(boxes) == 0 {
		return 1, map[string]float64{"measuredFrames": 0}
	}
	lineHeights := make([]float64, 0, len(boxes))
	heights := make([]float64, 0, len(boxes))
	areas := make([]float64, 0, len(boxes))
	for _, f := range boxes {
		n := max(1, len(lines(f.RawText)))
		heights = append(heights, f.BBox.Height)
		lineHeights = append(lineHeights, f.BBox.Height/float64(n))
		areas = append(areas, f.BBox.Area())
	}
	lineCV := cv(lineHeights)
	return withinLimit(lineCV, th.Layout.MaxSizeCV), map[string]float64{
		"measuredFrames": float64(len(boxes)),
		"lineHeightCV":   lineCV,
		"heightCV":       cv(heights),
		"areaCV":         cv(areas),
	}
}
