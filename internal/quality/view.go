package quality

import (
	"math"
	"strings"

	"captionsync/internal/caption"
	"captionsync/internal/pacing"
	"captionsync/internal/textutil"
)

// page is one caption unit as a viewer perceives it: a run of contiguous
// segments where each one only extends the text of the previous, which is
// how word-by-word reveal renders.
type page struct {
	Text     string
	Words    []string
	StartSec float64
	EndSec   float64
	Segments []int
}

func (p page) durationMs() float64 {
	return math.Max(0, p.EndSec-p.StartSec) * 1000
}

// view is the derived, read-only state shared by all factors.
type view struct {
	frames      []caption.OcrObservation
	segments    []caption.Segment
	pages       []page
	interval    float64
	durationSec float64
	pacing      *pacing.Report
}

const contiguityEpsilon = 1e-3

func newView(in Input) *view {
	frames := caption.SortObservations(in.Frames)
	interval := in.FrameIntervalSec
	if interval <= 0 {
		interval = caption.FrameInterval(frames, 0)
	}
	segments := caption.BuildSegments(frames, interval)

	duration := in.DurationSec
	if duration <= 0 && len(frames) > 0 {
		duration = frames[len(frames)-1].TimeSec + interval
	}

	return &view{
		frames:      frames,
		segments:    segments,
		pages:       buildPages(segments),
		interval:    interval,
		durationSec: duration,
		pacing:      in.Pacing,
	}
}

func buildPages(segments []caption.Segment) []page {
	var pages []page
	for _, seg := range segments {
		words := textutil.Words(seg.Text)
		if n := len(pages); n > 0 {
			last := &pages[n-1]
			if seg.StartSec <= last.EndSec+contiguityEpsilon && extends(last.Words, words) {
				last.Text = seg.Text
				last.Words = words
				last.EndSec = seg.EndSec
				last.Segments = append(last.Segments, seg.Index)
				continue
			}
		}
		pages = append(pages, page{
			Text:     seg.Text,
			Words:    words,
			StartSec: seg.StartSec,
			EndSec:   seg.EndSec,
			Segments: []int{seg.Index},
		})
	}
	return pages
}

// extends reports whether next starts with every word of prev and adds more.
func extends(prev, next []string) bool {
	if len(next) <= len(prev) {
		return false
	}
	for i, w := range prev {
		if next[i] != w {
			return false
		}
	}
	return true
}

// boxed returns text frames that carry a usable bounding box.
func (v *view) boxed() []caption.OcrObservation {
	out := make([]caption.OcrObservation, 0, len(v.frames))
	for _, f := range v.frames {
		if f.HasText() && !f.BBox.Empty() {
			out = append(out, f)
		}
	}
	return out
}

func (v *view) textFrames() []caption.OcrObservation {
	out := make([]caption.OcrObservation, 0, len(v.frames))
	for _, f := range v.frames {
		if f.HasText() {
			out = append(out, f)
		}
	}
	return out
}

// lines splits recognized text into non-empty display lines.
func lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
