package matcher

import (
	"math"
	"sort"

	"captionsync/internal/caption"
	"captionsync/internal/textutil"
)

// DefaultWindowMs tolerates roughly one caption page of display offset.
const DefaultWindowMs = 1500

// segmentLead is how many segments past the last matched one a token may sit
// before any ASR word has gone unmatched. Each unmatched word since the last
// match widens the bound by two more segments.
const segmentLead = 4

// Options tunes candidate eligibility.
type Options struct {
	// WindowMs bounds how far (before the spoken start or after the spoken
	// end) a displayed token may be and still count as the same word.
	WindowMs float64
}

// WordMatch pairs an ASR word with its on-screen counterpart. Observation is
// nil when the word was never seen on screen.
type WordMatch struct {
	AsrWord             caption.AsrWord  `json:"asrWord"`
	Observation         *caption.OcrWord `json:"observation,omitempty"`
	DriftMs             float64          `json:"driftMs"`
	NormalizedTextEqual bool             `json:"normalizedTextEqual"`
}

// Matched reports whether the ASR word found an on-screen counterpart.
func (m WordMatch) Matched() bool {
	return m.Observation != nil
}

// Result is the outcome of aligning one video's observations.
type Result struct {
	Matches      []WordMatch `json:"matches"`
	MatchedCount int         `json:"matchedCount"`
	AsrWordCount int         `json:"asrWordCount"`
	OcrWordCount int         `json:"ocrWordCount"`
	MatchRatio   float64     `json:"matchRatio"`
}

// Match aligns ASR words against displayed OCR tokens.
func Match(asr []caption.AsrWord, ocr []caption.OcrWord, opts Options) Result {
	window := opts.WindowMs
	if window <= 0 {
		window = DefaultWindowMs
	}
	windowSec := window / 1000

	words := sortedAsr(asr)
	tokens := sortedTokens(ocr)

	// Bucket token positions by normalized text so each ASR word only scans
	// its own candidates, still in display order.
	byText := make(map[string][]int, len(tokens))
	for i, tok := range tokens {
		byText[tok.Normalized] = append(byText[tok.Normalized], i)
	}

	consumed := make([]bool, len(tokens))
	result := Result{
		Matches:      make([]WordMatch, 0, len(words)),
		AsrWordCount: len(words),
		OcrWordCount: len(tokens),
	}
	lastSegment := -1
	missed := 0

	for _, word := range words {
		match := WordMatch{AsrWord: word}
		norm := textutil.NormalizeWord(word.Text)
		if norm == "" {
			result.Matches = append(result.Matches, match)
			continue
		}

		lo := word.StartSec - windowSec
		hi := math.Max(word.EndSec, word.StartSec) + windowSec
		for _, idx := range byText[norm] {
			if consumed[idx] {
				continue
			}
			tok := tokens[idx]
			if lastSegment >= 0 && (tok.Segment < lastSegment-1 || tok.Segment > lastSegment+segmentLead+2*missed) {
				continue
			}
			if tok.TimeSec < lo || tok.TimeSec > hi {
				continue
			}
			consumed[idx] = true
			observed := tok
			match.Observation = &observed
			match.DriftMs = roundMs((tok.TimeSec - word.StartSec) * 1000)
			match.NormalizedTextEqual = tok.Normalized == norm
			lastSegment = max(lastSegment, tok.Segment)
			result.MatchedCount++
			break
		}
		switch {
		case match.Matched():
			missed = 0
		case lastSegment >= 0:
			missed++
		}
		result.Matches = append(result.Matches, match)
	}

	result.MatchRatio = Ratio(result.MatchedCount, result.AsrWordCount, result.OcrWordCount)
	return result
}

// Ratio computes matched / max(asrCount, ocrCount), defined as 0 when both
// sides are empty and clamped to [0,1].
func Ratio(matched, asrCount, ocrCount int) float64 {
	denom := max(asrCount, ocrCount)
	if denom <= 0 || matched <= 0 {
		return 0
	}
	ratio := float64(matched) / float64(denom)
	if ratio > 1 {
		return 1
	}
	return ratio
}

func sortedAsr(words []caption.AsrWord) []caption.AsrWord {
	out := make([]caption.AsrWord, len(words))
	copy(out, words)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartSec != out[j].StartSec {
			return out[i].StartSec < out[j].StartSec
		}
		if out[i].EndSec != out[j].EndSec {
			return out[i].EndSec < out[j].EndSec
		}
		if a, b := textutil.NormalizeWord(out[i].Text), textutil.NormalizeWord(out[j].Text); a != b {
			return a < b
		}
		return out[i].Text < out[j].Text
	})
	return out
}

func sortedTokens(tokens []caption.OcrWord) []caption.OcrWord {
	out := make([]caption.OcrWord, len(tokens))
	copy(out, tokens)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Segment != out[j].Segment {
			return out[i].Segment < out[j].Segment
		}
		if out[i].TimeSec != out[j].TimeSec {
			return out[i].TimeSec < out[j].TimeSec
		}
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Normalized < out[j].Normalized
	})
	return out
}

// roundMs keeps drift values on a microsecond grid so float noise from
// timestamp arithmetic never leaks into reports.
func roundMs(v float64) float64 {
	return math.Round(v*1000) / 1000
}
