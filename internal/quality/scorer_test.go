package quality

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"captionsync/internal/caption"
	"captionsync/internal/pacing"
)

const testInterval = 0.2

var centered = caption.BBox{CenterX: 0.5, CenterY: 0.7, Width: 0.6, Height: 0.06}

// timeline lays out one frame per entry, testInterval apart. An empty string
// is a frame without captions.
func timeline(texts ...string) []caption.OcrObservation {
	frames := make([]caption.OcrObservation, len(texts))
	for i, text := range texts {
		frames[i] = caption.OcrObservation{FrameIndex: i, TimeSec: float64(i) * testInterval, RawText: text}
		if text != "" {
			frames[i].Confidence = 0.95
			frames[i].BBox = centered
		}
	}
	return frames
}

func repeat(text string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = text
	}
	return out
}

func concat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(DefaultThresholds(), DefaultWeights())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func score(t *testing.T, frames []caption.OcrObservation, duration float64) Report {
	t.Helper()
	return newTestScorer(t).Score(Input{Frames: frames, DurationSec: duration, FrameIntervalSec: testInterval})
}

func sub(t *testing.T, r Report, name string) SubScore {
	t.Helper()
	s, ok := r.SubScore(name)
	if !ok {
		t.Fatalf("missing sub-score %s", name)
	}
	return s
}

func cleanTimeline() []caption.OcrObservation {
	return timeline(concat(
		repeat("This is fine.", 7), []string{""},
		repeat("We keep going.", 7), []string{""},
		repeat("Captions look good.", 7), []string{""},
		repeat("Thanks for watching.", 6),
	)...)
}

func TestDefaultWeightsValid(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
	if got := len(FactorNames()); got != 15 {
		t.Fatalf("FactorNames() has %d entries, want 15", got)
	}
}

func TestNewScorerRejectsBadWeights(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(Weights)
		want   string
	}{
		{"sum above one", func(w Weights) { w[FactorCoverage] += 0.01 }, "sum to 1"},
		{"negative", func(w Weights) { w[FactorCoverage] = -0.02; w[FactorRhythm] += 0.14 }, "non-negative"},
		{"unknown", func(w Weights) { w["sparkle"] = 0 }, "unknown"},
		{"missing", func(w Weights) { w[FactorStyle+"X"] = w[FactorStyle]; delete(w, FactorStyle) }, "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DefaultWeights()
			tt.mutate(w)
			_, err := NewScorer(DefaultThresholds(), w)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestNewScorerAcceptsNormalizedRandomWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	frames := cleanTimeline()
	for iter := 0; iter < 100; iter++ {
		w := Weights{}
		sum := 0.0
		for _, name := range FactorNames() {
			w[name] = rng.Float64()
			sum += w[name]
		}
		for name := range w {
			w[name] /= sum
		}
		s, err := NewScorer(DefaultThresholds(), w)
		if err != nil {
			t.Fatalf("iteration %d: %v", iter, err)
		}
		r := s.Score(Input{Frames: frames, DurationSec: 6, FrameIntervalSec: testInterval})
		if r.Overall.Score < 0 || r.Overall.Score > 1 {
			t.Fatalf("iteration %d: overall %v out of range", iter, r.Overall.Score)
		}
	}
}

func TestScoreEmptyInput(t *testing.T) {
	r := score(t, timeline("", "", ""), 10)
	if len(r.SubScores) != 15 {
		t.Fatalf("got %d sub-scores, want 15", len(r.SubScores))
	}
	for _, s := range r.SubScores {
		if s.Score != 0 {
			t.Fatalf("%s = %v, want 0 without captions", s.Name, s.Score)
		}
	}
	if r.Overall.Score != 0 || r.Overall.Passed {
		t.Fatalf("overall = %+v, want zero and failing", r.Overall)
	}
}

func TestScoreCleanCaptionsPass(t *testing.T) {
	r := score(t, cleanTimeline(), 6)
	for _, s := range r.SubScores {
		if s.Score < 0.99 {
			t.Errorf("%s = %v (%v), want ~1", s.Name, s.Score, s.Metrics)
		}
	}
	if !r.Overall.Passed {
		t.Fatalf("expected pass, got %+v", r.Overall)
	}
	cov := sub(t, r, FactorCoverage)
	if math.Abs(cov.Metrics["coverageRatio"]-0.9) > 1e-3 {
		t.Fatalf("coverageRatio = %v, want 0.9", cov.Metrics["coverageRatio"])
	}
}

func TestScoreSumsWeightedFactors(t *testing.T) {
	r := score(t, timeline(concat(repeat("ONE two", 3), repeat("", 5))...), 4)
	total := 0.0
	for _, s := range r.SubScores {
		total += s.Weight * s.Score
	}
	if math.Abs(total-r.Overall.Score) > 1e-3 {
		t.Fatalf("overall %v differs from weighted sum %v", r.Overall.Score, total)
	}
}

func TestFlickerCountsReappearingWords(t *testing.T) {
	frames := timeline(concat(repeat("Hello there", 3), []string{""}, repeat("Hello there", 3))...)
	r := score(t, frames, 1.4)
	fl := sub(t, r, FactorFlicker)
	if fl.Metrics["flickerEvents"] != 2 {
		t.Fatalf("flickerEvents = %v, want 2", fl.Metrics["flickerEvents"])
	}
	if fl.Score >= 1 {
		t.Fatalf("flicker score = %v, want penalty", fl.Score)
	}
	red := sub(t, r, FactorRedundancy)
	if red.Metrics["repeatedPages"] != 1 {
		t.Fatalf("repeatedPages = %v, want 1", red.Metrics["repeatedPages"])
	}
}

func TestFlickerIgnoresLongGaps(t *testing.T) {
	frames := timeline(concat(repeat("Hello there", 3), repeat("", 5), repeat("Hello there", 3))...)
	fl := sub(t, score(t, frames, 2.2), FactorFlicker)
	if fl.Metrics["flickerEvents"] != 0 {
		t.Fatalf("flickerEvents = %v, want 0", fl.Metrics["flickerEvents"])
	}
}

func TestFlickerFailsOverall(t *testing.T) {
	var texts []string
	for i := 0; i < 4; i++ {
		texts = append(texts, concat(repeat("Stay still.", 5), []string{""})...)
	}
	r := score(t, timeline(texts...), 4.8)
	if r.Overall.Passed {
		t.Fatalf("expected failure with %v flicker events", sub(t, r, FactorFlicker).Metrics["flickerEvents"])
	}
}

func TestDisplayTimeFlagsFlash(t *testing.T) {
	frames := timeline(concat(repeat("Long enough page.", 6), []string{"", "Boo!", ""}, repeat("Another calm page.", 6))...)
	dt := sub(t, score(t, frames, 3), FactorDisplayTime)
	if dt.Metrics["flashPages"] != 1 {
		t.Fatalf("flashPages = %v, want 1", dt.Metrics["flashPages"])
	}
	if dt.Score >= 1 {
		t.Fatalf("displayTime = %v, want penalty", dt.Score)
	}
}

func TestProgressiveRevealIsOnePage(t *testing.T) {
	frames := timeline(concat(repeat("Hello", 2), repeat("Hello world", 4), repeat("Hello world again.", 4))...)
	v := newView(Input{Frames: frames, FrameIntervalSec: testInterval})
	if len(v.segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(v.segments))
	}
	if len(v.pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(v.pages))
	}
	if v.pages[0].Text != "Hello world again." {
		t.Fatalf("page text = %q", v.pages[0].Text)
	}
	if math.Abs(v.pages[0].durationMs()-2000) > 1e-6 {
		t.Fatalf("page duration = %v, want 2000", v.pages[0].durationMs())
	}
}

func TestSafeAreaViolation(t *testing.T) {
	frames := cleanTimeline()
	for i := range frames[:7] {
		frames[i].BBox.CenterY = 0.93
	}
	sa := sub(t, score(t, frames, 6), FactorSafeArea)
	if sa.Metrics["violatingFrames"] != 7 {
		t.Fatalf("violatingFrames = %v, want 7", sa.Metrics["violatingFrames"])
	}
}

func TestAlignmentAndPlacement(t *testing.T) {
	frames := cleanTimeline()
	for i := range frames {
		if frames[i].HasText() && i >= 16 {
			frames[i].BBox.CenterX = 0.3
		}
	}
	r := score(t, frames, 6)
	al := sub(t, r, FactorAlignment)
	if al.Score >= 1 || al.Score <= 0 {
		t.Fatalf("alignment = %v, want partial", al.Score)
	}
	pl := sub(t, r, FactorPlacement)
	if pl.Score >= 1 {
		t.Fatalf("placement = %v, want penalty for moving captions", pl.Score)
	}
}

func TestJitterWithinSegment(t *testing.T) {
	frames := cleanTimeline()
	for i := 0; i < 7; i++ {
		frames[i].BBox.CenterX = 0.5 + 0.06*float64(i%2)
	}
	j := sub(t, score(t, frames, 6), FactorJitter)
	if j.Score >= 1 {
		t.Fatalf("jitter = %v, want penalty", j.Score)
	}
	if j.Metrics["maxFrameDelta"] < 0.059 {
		t.Fatalf("maxFrameDelta = %v", j.Metrics["maxFrameDelta"])
	}
}

func TestStyleSizeVariation(t *testing.T) {
	frames := cleanTimeline()
	for i := 8; i < 15; i++ {
		frames[i].BBox.Height = 0.12
	}
	st := sub(t, score(t, frames, 6), FactorStyle)
	if st.Score >= 1 {
		t.Fatalf("style = %v, want penalty for size change", st.Score)
	}
}

func TestCapitalizationDominantStyle(t *testing.T) {
	frames := timeline(concat(
		repeat("THIS IS LOUD", 6), []string{""},
		repeat("STILL LOUD HERE", 6), []string{""},
		repeat("now quiet", 6), []string{""},
		repeat("BACK TO LOUD", 6),
	)...)
	c := sub(t, score(t, frames, 5.6), FactorCapitalization)
	if math.Abs(c.Score-0.75) > 1e-9 {
		t.Fatalf("capitalization = %v, want 0.75", c.Score)
	}
}

func TestCaseStyle(t *testing.T) {
	c := newCasers()
	tests := map[string]string{
		"HELLO WORLD":  "upper",
		"hello world":  "lower",
		"Hello world.": "sentence",
		"Hello World":  "title",
		"hELLo wOrld":  "mixed",
		"123 !!":       "",
		"I think so":   "sentence",
	}
	for in, want := range tests {
		if got := c.caseStyle(in); got != want {
			t.Errorf("caseStyle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPunctuationIssues(t *testing.T) {
	frames := timeline(concat(
		repeat("Wait!! what", 6), []string{""},
		repeat("Calm down .", 6), []string{""},
		repeat("It is fine", 6), []string{""},
		repeat("All good", 6),
	)...)
	p := sub(t, score(t, frames, 5.6), FactorPunctuation)
	if p.Metrics["repeatedPunctuation"] != 1 || p.Metrics["spaceBeforePunctuation"] != 1 {
		t.Fatalf("metrics = %v", p.Metrics)
	}
	if p.Metrics["pagesWithIssues"] != 2 {
		t.Fatalf("pagesWithIssues = %v, want 2", p.Metrics["pagesWithIssues"])
	}
	if math.Abs(p.Score-0.5) > 1e-9 {
		t.Fatalf("punctuation = %v, want 0.5", p.Score)
	}
}

func TestSegmentationDanglingBreaks(t *testing.T) {
	frames := timeline(concat(
		repeat("We went to the", 6), []string{""},
		repeat("store and bought", 6), []string{""},
		repeat("milk", 6), []string{""},
		repeat("for breakfast.", 6),
	)...)
	s := sub(t, score(t, frames, 5.6), FactorSegmentation)
	if s.Metrics["danglingBreaks"] != 1 || s.Metrics["orphanWords"] != 1 {
		t.Fatalf("metrics = %v", s.Metrics)
	}
}

func TestDensityOverflow(t *testing.T) {
	long := "this caption line is far too long to read comfortably"
	frames := timeline(concat(repeat(long, 6), []string{""}, repeat("one\ntwo\nthree", 6), []string{""}, repeat("fine", 6))...)
	d := sub(t, score(t, frames, 4), FactorDensity)
	if d.Metrics["overflowPages"] != 2 || d.Metrics["maxLines"] != 3 {
		t.Fatalf("metrics = %v", d.Metrics)
	}
}

func TestOCRConfidenceRamp(t *testing.T) {
	frames := cleanTimeline()
	for i := range frames {
		if frames[i].HasText() {
			frames[i].Confidence = 0.75
		}
	}
	c := sub(t, score(t, frames, 6), FactorOCRConfidence)
	if math.Abs(c.Score-0.5) > 1e-3 {
		t.Fatalf("ocrConfidence = %v, want 0.5", c.Score)
	}
}

func TestRhythmUsesPacing(t *testing.T) {
	s := newTestScorer(t)
	frames := cleanTimeline()
	without := s.Score(Input{Frames: frames, DurationSec: 6, FrameIntervalSec: testInterval})
	with := s.Score(Input{
		Frames:           frames,
		DurationSec:      6,
		FrameIntervalSec: testInterval,
		Pacing:           &pacing.Report{TotalChunks: 4, FastChunkCount: 2},
	})
	a := sub(t, without, FactorRhythm).Score
	b := sub(t, with, FactorRhythm).Score
	if math.Abs(b-a*0.75) > 1e-3 {
		t.Fatalf("rhythm with pacing = %v, want %v", b, a*0.75)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	s := newTestScorer(t)
	frames := cleanTimeline()
	shuffled := append([]caption.OcrObservation(nil), frames...)
	rand.New(rand.NewSource(5)).Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	a := s.Score(Input{Frames: frames, DurationSec: 6, FrameIntervalSec: testInterval})
	b := s.Score(Input{Frames: shuffled, DurationSec: 6, FrameIntervalSec: testInterval})
	if a.Overall != b.Overall {
		t.Fatalf("overall differs: %+v vs %+v", a.Overall, b.Overall)
	}
	for i := range a.SubScores {
		if a.SubScores[i].Score != b.SubScores[i].Score {
			t.Fatalf("%s differs", a.SubScores[i].Name)
		}
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	th := DefaultThresholds()
	th.DisplayTime.FlashMs = th.DisplayTime.MinMs
	if err := th.Validate(); err == nil {
		t.Fatal("expected error for flash >= min")
	}
}
