package caption

import (
	"sort"
	"strings"

	"captionsync/internal/textutil"
)

// Segment is a run of consecutive sampled frames that show the same
// normalized caption text.
type Segment struct {
	Index      int      `json:"index"`
	Text       string   `json:"text"`
	Normalized string   `json:"normalized"`
	Words      []string `json:"words"`
	StartSec   float64  `json:"startSec"`
	EndSec     float64  `json:"endSec"`
	FirstFrame int      `json:"firstFrame"`
	LastFrame  int      `json:"lastFrame"`
	// Frames holds positions into the sorted observation slice.
	Frames []int `json:"-"`
}

// DurationSec returns how long the segment was visible.
func (s Segment) DurationSec() float64 {
	if s.EndSec <= s.StartSec {
		return 0
	}
	return s.EndSec - s.StartSec
}

// OcrWord is one displayed token of a segment.
type OcrWord struct {
	Text       string  `json:"text"`
	Normalized string  `json:"normalized"`
	TimeSec    float64 `json:"timeSec"`
	EndSec     float64 `json:"endSec"`
	Segment    int     `json:"segment"`
	Position   int     `json:"position"`
}

// SortObservations returns a copy of obs ordered by time, then frame index.
func SortObservations(obs []OcrObservation) []OcrObservation {
	sorted := make([]OcrObservation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TimeSec != sorted[j].TimeSec {
			return sorted[i].TimeSec < sorted[j].TimeSec
		}
		return sorted[i].FrameIndex < sorted[j].FrameIndex
	})
	return sorted
}

// FrameInterval infers the sampling interval from the median gap between
// observations. Returns fallback when fewer than two frames exist.
func FrameInterval(sorted []OcrObservation, fallback float64) float64 {
	if len(sorted) < 2 {
		return fallback
	}
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		if gap := sorted[i].TimeSec - sorted[i-1].TimeSec; gap > 0 {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return fallback
	}
	sort.Float64s(gaps)
	return gaps[len(gaps)/2]
}

// BuildSegments folds sorted observations into display segments. Frames
// without text close the current segment. interval is the sampling period
// used to extend each segment past its last frame.
func BuildSegments(sorted []OcrObservation, interval float64) []Segment {
	var segments []Segment
	var current *Segment

	flush := func() {
		if current != nil {
			segments = append(segments, *current)
			current = nil
		}
	}

	for i, obs := range sorted {
		norm := textutil.NormalizeText(obs.RawText)
		if norm == "" {
			flush()
			continue
		}
		if current != nil && current.Normalized == norm {
			current.LastFrame = obs.FrameIndex
			current.EndSec = obs.TimeSec + interval
			current.Frames = append(current.Frames, i)
			continue
		}
		flush()
		current = &Segment{
			Index:      len(segments),
			Text:       strings.TrimSpace(obs.RawText),
			Normalized: norm,
			Words:      strings.Fields(strings.TrimSpace(obs.RawText)),
			StartSec:   obs.TimeSec,
			EndSec:     obs.TimeSec + interval,
			FirstFrame: obs.FrameIndex,
			LastFrame:  obs.FrameIndex,
			Frames:     []int{i},
		}
	}
	flush()
	return segments
}

// contiguityToleranceSec absorbs float noise between a segment's end and the
// next frame timestamp.
const contiguityToleranceSec = 1e-3

// Tokens expands segments into displayed word tokens, in display order.
// Every token of a segment carries the segment's first appearance time. When
// a segment directly follows another (no blank frame between), words already
// shown at the same position are continuations rather than new displays, so
// progressive word-by-word reveals do not count a word twice.
func Tokens(segments []Segment) []OcrWord {
	var words []OcrWord
	var prevWords []string
	prevEnd := -1.0
	for _, seg := range segments {
		contiguous := prevWords != nil && seg.StartSec <= prevEnd+contiguityToleranceSec
		pos := 0
		normalized := make([]string, 0, len(seg.Words))
		for _, raw := range seg.Words {
			norm := textutil.NormalizeWord(raw)
			if norm == "" {
				continue
			}
			normalized = append(normalized, norm)
			if contiguous && pos < len(prevWords) && prevWords[pos] == norm {
				pos++
				continue
			}
			words = append(words, OcrWord{
				Text:       raw,
				Normalized: norm,
				TimeSec:    seg.StartSec,
				EndSec:     seg.EndSec,
				Segment:    seg.Index,
				Position:   pos,
			})
			pos++
		}
		prevWords = normalized
		prevEnd = seg.EndSec
	}
	return words
}
