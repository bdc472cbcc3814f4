package matcher

import (
	"math"
	"math/rand"
	"testing"

	"captionsync/internal/caption"
)

func asr(text string, start, end float64) caption.AsrWord {
	return caption.AsrWord{Text: text, StartSec: start, EndSec: end, Confidence: 0.95}
}

func tokensFor(obs ...caption.OcrObservation) []caption.OcrWord {
	sorted := caption.SortObservations(obs)
	return caption.Tokens(caption.BuildSegments(sorted, caption.FrameInterval(sorted, 0.1)))
}

func TestMatchPerfectSync(t *testing.T) {
	words := []caption.AsrWord{asr("hello", 0.1, 0.3), asr("world", 0.6, 0.8)}
	ocr := tokensFor(
		caption.OcrObservation{FrameIndex: 0, TimeSec: 0.1, RawText: "HELLO"},
		caption.OcrObservation{FrameIndex: 1, TimeSec: 0.35, RawText: "HELLO"},
		caption.OcrObservation{FrameIndex: 2, TimeSec: 0.6, RawText: "HELLO WORLD"},
		caption.OcrObservation{FrameIndex: 3, TimeSec: 0.85, RawText: "HELLO WORLD"},
	)

	res := Match(words, ocr, Options{})
	if res.MatchRatio != 1.0 {
		t.Fatalf("MatchRatio = %v, want 1.0", res.MatchRatio)
	}
	if res.MatchedCount != 2 {
		t.Fatalf("MatchedCount = %d, want 2", res.MatchedCount)
	}
	for _, m := range res.Matches {
		if !m.Matched() {
			t.Fatalf("expected %q matched", m.AsrWord.Text)
		}
		if math.Abs(m.DriftMs) > 1 {
			t.Fatalf("drift for %q = %v, want ~0", m.AsrWord.Text, m.DriftMs)
		}
		if !m.NormalizedTextEqual {
			t.Fatalf("expected normalized text equality for %q", m.AsrWord.Text)
		}
	}
}

func TestMatchEmptyOCR(t *testing.T) {
	words := []caption.AsrWord{asr("one", 0, 0.2), asr("two", 0.3, 0.5)}
	res := Match(words, nil, Options{})
	if res.MatchRatio != 0 {
		t.Fatalf("MatchRatio = %v, want 0", res.MatchRatio)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("expected unmatched words retained, got %d", len(res.Matches))
	}
	for _, m := range res.Matches {
		if m.Matched() {
			t.Fatalf("unexpected match for %q", m.AsrWord.Text)
		}
	}
}

func TestMatchEmptyEverything(t *testing.T) {
	res := Match(nil, nil, Options{})
	if res.MatchRatio != 0 || math.IsNaN(res.MatchRatio) {
		t.Fatalf("MatchRatio = %v, want 0", res.MatchRatio)
	}
}

func TestMatchIgnoresDistantRepeat(t *testing.T) {
	words := []caption.AsrWord{asr("go", 0.0, 0.2), asr("team", 0.3, 0.5), asr("go", 0.6, 0.8)}
	ocr := tokensFor(
		caption.OcrObservation{FrameIndex: 0, TimeSec: 0.0, RawText: "GO TEAM"},
		caption.OcrObservation{FrameIndex: 1, TimeSec: 1.0, RawText: ""},
		caption.OcrObservation{FrameIndex: 2, TimeSec: 10.0, RawText: "GO HOME"},
	)
	res := Match(words, ocr, Options{})
	if res.MatchedCount != 2 {
		t.Fatalf("MatchedCount = %d, want 2", res.MatchedCount)
	}
	if res.Matches[2].Matched() {
		t.Fatalf("second 'go' must not match the occurrence ten seconds later: %+v", res.Matches[2].Observation)
	}
}

func TestMatchRejectsCandidatesBehindPreviousChunk(t *testing.T) {
	words := []caption.AsrWord{
		asr("yes", 0.0, 0.1),
		asr("no", 0.2, 0.3),
		asr("maybe", 0.4, 0.5),
		asr("yes", 0.8, 0.9),
	}
	ocr := tokensFor(
		caption.OcrObservation{FrameIndex: 0, TimeSec: 0.0, RawText: "YES YES"},
		caption.OcrObservation{FrameIndex: 1, TimeSec: 0.1, RawText: ""},
		caption.OcrObservation{FrameIndex: 2, TimeSec: 0.2, RawText: "NO"},
		caption.OcrObservation{FrameIndex: 3, TimeSec: 0.3, RawText: ""},
		caption.OcrObservation{FrameIndex: 4, TimeSec: 0.4, RawText: "MAYBE"},
	)
	res := Match(words, ocr, Options{})
	if res.Matches[3].Matched() {
		t.Fatalf("late 'yes' must not reach back two pages, got segment %d", res.Matches[3].Observation.Segment)
	}
	if res.MatchedCount != 3 {
		t.Fatalf("MatchedCount = %d, want 3", res.MatchedCount)
	}
}

func TestMatchConsumesEachTokenOnce(t *testing.T) {
	words := []caption.AsrWord{asr("la", 0.0, 0.1), asr("la", 0.1, 0.2), asr("la", 0.2, 0.3)}
	ocr := tokensFor(caption.OcrObservation{FrameIndex: 0, TimeSec: 0.0, RawText: "LA LA"})
	res := Match(words, ocr, Options{})
	if res.MatchedCount != 2 {
		t.Fatalf("MatchedCount = %d, want 2 (one displayed token per ASR word)", res.MatchedCount)
	}
	if res.Matches[2].Matched() {
		t.Fatal("third 'la' has no displayed token left")
	}
}

func TestMatchPartialOverlapRatio(t *testing.T) {
	words := []caption.AsrWord{
		asr("this", 0.0, 0.2), asr("is", 0.2, 0.4), asr("a", 0.4, 0.5),
		asr("short", 0.5, 0.8), asr("test", 0.8, 1.0),
	}
	ocr := tokensFor(caption.OcrObservation{FrameIndex: 0, TimeSec: 0.0, RawText: "THIS IS SHORT TEST"})
	res := Match(words, ocr, Options{})
	if res.MatchRatio != 0.8 {
		t.Fatalf("MatchRatio = %v, want 0.8", res.MatchRatio)
	}
}

func TestMatchIsOrderIndependent(t *testing.T) {
	words := []caption.AsrWord{asr("alpha", 0, 0.2), asr("beta", 0.3, 0.5), asr("gamma", 0.6, 0.9)}
	ocr := tokensFor(caption.OcrObservation{FrameIndex: 0, TimeSec: 0.05, RawText: "ALPHA BETA GAMMA"})

	reversedWords := []caption.AsrWord{words[2], words[0], words[1]}
	reversedTokens := []caption.OcrWord{ocr[2], ocr[1], ocr[0]}

	a := Match(words, ocr, Options{})
	b := Match(reversedWords, reversedTokens, Options{})
	if a.MatchRatio != b.MatchRatio || a.MatchedCount != b.MatchedCount {
		t.Fatalf("results differ: %+v vs %+v", a, b)
	}
	for i := range a.Matches {
		if a.Matches[i].DriftMs != b.Matches[i].DriftMs {
			t.Fatalf("drift %d differs: %v vs %v", i, a.Matches[i].DriftMs, b.Matches[i].DriftMs)
		}
	}
}

func TestMatchRatioAlwaysInUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vocab := []string{"red", "green", "blue", "cyan", "pink"}
	for iter := 0; iter < 200; iter++ {
		var words []caption.AsrWord
		n := rng.Intn(12)
		for i := 0; i < n; i++ {
			start := float64(i) * 0.3
			words = append(words, asr(vocab[rng.Intn(len(vocab))], start, start+0.25))
		}
		var obs []caption.OcrObservation
		frames := rng.Intn(20)
		for f := 0; f < frames; f++ {
			text := ""
			if rng.Intn(3) > 0 {
				text = vocab[rng.Intn(len(vocab))] + " " + vocab[rng.Intn(len(vocab))]
			}
			obs = append(obs, caption.OcrObservation{FrameIndex: f, TimeSec: float64(f) * 0.2, RawText: text})
		}
		tokens := tokensFor(obs...)
		res := Match(words, tokens, Options{})
		if res.MatchRatio < 0 || res.MatchRatio > 1 || math.IsNaN(res.MatchRatio) {
			t.Fatalf("iteration %d: ratio %v out of range", iter, res.MatchRatio)
		}
		if len(tokens) == 0 && res.MatchRatio != 0 {
			t.Fatalf("iteration %d: expected 0 ratio without OCR text", iter)
		}
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		matched, asr, ocr int
		want              float64
	}{
		{0, 0, 0, 0},
		{2, 5, 2, 0.4},
		{4, 5, 4, 0.8},
		{3, 3, 1, 1},
	}
	for _, tt := range tests {
		if got := Ratio(tt.matched, tt.asr, tt.ocr); got != tt.want {
			t.Errorf("Ratio(%d,%d,%d) = %v, want %v", tt.matched, tt.asr, tt.ocr, got, tt.want)
		}
	}
}

func onScreen(text string, at float64, segment int) caption.OcrWord {
	return caption.OcrWord{Text: text, Normalized: text, TimeSec: at, EndSec: at + 0.2, Segment: segment}
}

func TestMatchRepeatFarAheadDoesNotStealWord(t *testing.T) {
	// The second "yes" was never shown; the next "yes" sits five segments on,
	// past the four-segment lead.
	ocr := []caption.OcrWord{
		onScreen("yes", 0.0, 0),
		onScreen("maybe", 0.3, 1),
		onScreen("so", 0.6, 2),
		onScreen("well", 0.9, 3),
		onScreen("okay", 1.2, 4),
		onScreen("yes", 1.4, 5),
	}
	words := []caption.AsrWord{
		asr("yes", 0.0, 0.05),
		asr("yes", 0.1, 0.15),
		asr("maybe", 0.3, 0.4),
		asr("so", 0.6, 0.7),
		asr("well", 0.9, 1.0),
		asr("okay", 1.2, 1.3),
	}
	res := Match(words, ocr, Options{})
	if res.Matches[1].Matched() {
		t.Fatalf("repeated word paired with segment %d", res.Matches[1].Observation.Segment)
	}
	if res.MatchedCount != 5 {
		t.Fatalf("MatchedCount = %d, want 5", res.MatchedCount)
	}
}

func TestMatchCatchesUpAfterMissedWords(t *testing.T) {
	// Three spoken words never appear, so the next match is four segments on.
	ocr := []caption.OcrWord{
		onScreen("start", 0.0, 0),
		onScreen("x", 0.2, 1),
		onScreen("y", 0.4, 2),
		onScreen("z", 0.6, 3),
		onScreen("end", 0.8, 4),
	}
	words := []caption.AsrWord{
		asr("start", 0.0, 0.1),
		asr("a", 0.2, 0.3),
		asr("b", 0.4, 0.5),
		asr("c", 0.6, 0.7),
		asr("end", 0.8, 0.9),
	}
	res := Match(words, ocr, Options{})
	if !res.Matches[4].Matched() || res.Matches[4].Observation.Segment != 4 {
		t.Fatalf("last word should match segment 4, got %+v", res.Matches[4])
	}
}

func TestMatchTiedWordsIgnoreInputOrder(t *testing.T) {
	ocr := []caption.OcrWord{onScreen("red", 0.5, 0), onScreen("blue", 0.5, 0)}
	a := Match([]caption.AsrWord{asr("red", 0.5, 0.6), asr("blue", 0.5, 0.6)}, ocr, Options{})
	b := Match([]caption.AsrWord{asr("blue", 0.5, 0.6), asr("red", 0.5, 0.6)}, ocr, Options{})
	for i := range a.Matches {
		if a.Matches[i].AsrWord.Text != b.Matches[i].AsrWord.Text {
			t.Fatalf("order differs at %d: %q vs %q", i, a.Matches[i].AsrWord.Text, b.Matches[i].AsrWord.Text)
		}
	}
}
