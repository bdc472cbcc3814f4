package rating

import (
	"encoding/json"
	"strings"
	"testing"

	"captionsync/internal/caption"
	"captionsync/internal/drift"
	"captionsync/internal/matcher"
	"captionsync/internal/pacing"
	"captionsync/internal/quality"
)

func passingQuality() quality.Report {
	return quality.Report{
		Thresholds: quality.DefaultThresholds(),
		Overall:    quality.Overall{Score: 0.95, Passed: true},
	}
}

func TestLabelFor(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		rating float64
		want   Label
	}{
		{100, LabelExcellent},
		{90, LabelExcellent},
		{89.9, LabelGood},
		{75, LabelGood},
		{60, LabelFair},
		{59.9, LabelPoor},
		{40, LabelPoor},
		{0, LabelBroken},
	}
	for _, tt := range tests {
		if got := cfg.LabelFor(tt.rating); got != tt.want {
			t.Errorf("LabelFor(%v) = %s, want %s", tt.rating, got, tt.want)
		}
	}
}

func TestCombineRequiresBothGates(t *testing.T) {
	cfg := DefaultConfig()
	good := drift.Analysis{Rating: 95, MatchRatio: 1}

	out := Combine(Input{Drift: good, Quality: passingQuality()}, cfg)
	if !out.Passed || ExitCode(out) != 0 {
		t.Fatalf("expected pass, got %+v", out)
	}

	failingQuality := passingQuality()
	failingQuality.Overall.Passed = false
	failingQuality.Overall.Score = 0.4
	out = Combine(Input{Drift: good, Quality: failingQuality}, cfg)
	if out.Passed || ExitCode(out) != 1 {
		t.Fatal("quality failure must fail the run")
	}
	if out.Rating != 95 {
		t.Fatalf("quality must not change the headline rating, got %v", out.Rating)
	}
	if !containsNote(out.Diagnostics, "caption quality") {
		t.Fatalf("diagnostics do not explain the failure: %v", out.Diagnostics)
	}

	low := drift.Analysis{Rating: 70, MatchRatio: 1}
	out = Combine(Input{Drift: low, Quality: passingQuality()}, cfg)
	if out.Passed {
		t.Fatal("rating below minimum must fail")
	}
	if out.Label != LabelFair {
		t.Fatalf("Label = %s, want fair", out.Label)
	}
	if !containsNote(out.Diagnostics, "below the 80 minimum") {
		t.Fatalf("diagnostics = %v", out.Diagnostics)
	}
}

func TestCombineZeroVideo(t *testing.T) {
	match := matcher.Match(nil, nil, matcher.Options{})
	analysis := drift.Analyze(match.Matches, match.MatchRatio, drift.DefaultConfig())
	scorer, err := quality.NewScorer(quality.DefaultThresholds(), quality.DefaultWeights())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	out := Combine(Input{
		Match:   match,
		Drift:   analysis,
		Quality: scorer.Score(quality.Input{}),
		Pacing:  pacing.Analyze(nil, pacing.DefaultPolicy()),
	}, DefaultConfig())

	if out.Rating != 0 || out.Label != LabelBroken || out.Passed {
		t.Fatalf("unexpected output: rating=%v label=%s passed=%v", out.Rating, out.Label, out.Passed)
	}
	if len(out.Errors) == 0 || len(out.Diagnostics) == 0 {
		t.Fatal("a low rating must carry errors and diagnostics")
	}
	if _, err := json.Marshal(out); err != nil {
		t.Fatalf("output must serialize: %v", err)
	}
}

func TestCombineIsDeterministic(t *testing.T) {
	words := []caption.AsrWord{
		{Text: "hello", StartSec: 0.1, EndSec: 0.3},
		{Text: "world", StartSec: 0.6, EndSec: 0.8},
	}
	frames := []caption.OcrObservation{
		{FrameIndex: 0, TimeSec: 0.1, RawText: "HELLO WORLD", Confidence: 0.9},
		{FrameIndex: 1, TimeSec: 0.6, RawText: "HELLO WORLD", Confidence: 0.9},
	}
	scorer, err := quality.NewScorer(quality.DefaultThresholds(), quality.DefaultWeights())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}

	run := func() []byte {
		sorted := caption.SortObservations(frames)
		interval := caption.FrameInterval(sorted, 0.5)
		tokens := caption.Tokens(caption.BuildSegments(sorted, interval))
		match := matcher.Match(words, tokens, matcher.Options{})
		pace := pacing.Analyze(words, pacing.DefaultPolicy())
		out := Combine(Input{
			Match:   match,
			Drift:   drift.Analyze(match.Matches, match.MatchRatio, drift.DefaultConfig()),
			Quality: scorer.Score(quality.Input{Frames: frames, DurationSec: 1, FrameIntervalSec: interval, Pacing: &pace}),
			Pacing:  pace,
		}, DefaultConfig())
		data, err := json.Marshal(out)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return data
	}

	first := run()
	for i := 0; i < 5; i++ {
		if got := run(); string(got) != string(first) {
			t.Fatalf("run %d produced a different report", i)
		}
	}
}

func TestDiagnosticsListWeakFactorsWorstFirst(t *testing.T) {
	q := passingQuality()
	q.SubScores = []quality.SubScore{
		{Name: quality.FactorRhythm, Score: 0.5},
		{Name: quality.FactorCoverage, Score: 0.1},
		{Name: quality.FactorStyle, Score: 0.9},
	}
	out := Combine(Input{Drift: drift.Analysis{Rating: 99}, Quality: q}, DefaultConfig())
	var weak []string
	for _, d := range out.Diagnostics {
		if strings.HasPrefix(d, "weak ") {
			weak = append(weak, d)
		}
	}
	if len(weak) != 2 || !strings.Contains(weak[0], "coverage") {
		t.Fatalf("weak factors = %v", weak)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default invalid: %v", err)
	}
	cfg := DefaultConfig()
	cfg.GoodFrom = cfg.ExcellentFrom
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlapping buckets")
	}
}

func containsNote(notes []string, fragment string) bool {
	for _, n := range notes {
		if strings.Contains(n, fragment) {
			return true
		}
	}
	return false
}
