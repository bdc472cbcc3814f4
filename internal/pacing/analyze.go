package pacing

import (
	"math"
	"sort"
	"strings"

	"captionsync/internal/caption"
	"captionsync/internal/textutil"
)

// Chunk is one caption page built from consecutive spoken words.
type Chunk struct {
	Index            int     `json:"index"`
	Text             string  `json:"text"`
	StartMs          float64 `json:"startMs"`
	EndMs            float64 `json:"endMs"`
	DurationMs       float64 `json:"durationMs"`
	WordCount        int     `json:"wordCount"`
	CharCount        int     `json:"charCount"`
	RequiredMinMs    float64 `json:"requiredMinMs"`
	MeetsMinDuration bool    `json:"meetsMinDuration"`
}

// CharsPerSecond is the reading speed the chunk demands.
func (c Chunk) CharsPerSecond() float64 {
	return float64(c.CharCount) / (math.Max(c.DurationMs, 1) / 1000)
}

// WordsPerMinute is the word rate the chunk demands.
func (c Chunk) WordsPerMinute() float64 {
	return float64(c.WordCount) / (math.Max(c.DurationMs, 1) / 60000)
}

// Report aggregates chunk pacing for one timeline.
type Report struct {
	TotalChunks    int     `json:"totalChunks"`
	FastChunkCount int     `json:"fastChunkCount"`
	MinDurationMs  float64 `json:"minDurationMs"`
	MaxDurationMs  float64 `json:"maxDurationMs"`
	AvgDurationMs  float64 `json:"avgDurationMs"`
	MaxCPS         float64 `json:"maxCps"`
	MaxWPM         float64 `json:"maxWpm"`
	Chunks         []Chunk `json:"chunks"`
}

// FastChunkRatio is the share of chunks shown for less than their required time.
func (r Report) FastChunkRatio() float64 {
	if r.TotalChunks == 0 {
		return 0
	}
	return float64(r.FastChunkCount) / float64(r.TotalChunks)
}

// Analyze chunks words under policy and measures each chunk.
func Analyze(words []caption.AsrWord, policy Policy) Report {
	report := Report{Chunks: []Chunk{}}
	ordered := make([]caption.AsrWord, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w.Text) != "" {
			ordered = append(ordered, w)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.StartSec != b.StartSec {
			return a.StartSec < b.StartSec
		}
		if a.EndSec != b.EndSec {
			return a.EndSec < b.EndSec
		}
		if na, nb := textutil.NormalizeWord(a.Text), textutil.NormalizeWord(b.Text); na != nb {
			return na < nb
		}
		return a.Text < b.Text
	})
	if len(ordered) == 0 {
		return report
	}

	fillers := policy.fillerSet()
	for i, group := range Paginate(ordered, policy) {
		report.Chunks = append(report.Chunks, measure(i, group, fillers, policy))
	}

	report.TotalChunks = len(report.Chunks)
	report.MinDurationMs = math.Inf(1)
	total := 0.0
	for _, c := range report.Chunks {
		if !c.MeetsMinDuration {
			report.FastChunkCount++
		}
		report.MinDurationMs = math.Min(report.MinDurationMs, c.DurationMs)
		report.MaxDurationMs = math.Max(report.MaxDurationMs, c.DurationMs)
		report.MaxCPS = math.Max(report.MaxCPS, c.CharsPerSecond())
		report.MaxWPM = math.Max(report.MaxWPM, c.WordsPerMinute())
		total += c.DurationMs
	}
	report.AvgDurationMs = total / float64(report.TotalChunks)
	return report
}

// Paginate splits a start-ordered timeline into pages. Pages fill greedily up
// to the page size; a sentence-ending word closes a page early once it holds
// MinWordsPerPage words. Only the final page may be shorter than that.
func Paginate(words []caption.AsrWord, policy Policy) [][]caption.AsrWord {
	size := policy.pageSize()
	minWords := max(1, min(policy.MinWordsPerPage, size))

	var pages [][]caption.AsrWord
	var current []caption.AsrWord
	for _, w := range words {
		current = append(current, w)
		if len(current) >= size || (len(current) >= minWords && textutil.EndsSentence(w.Text)) {
			pages = append(pages, current)
			current = nil
		}
	}
	if len(current) > 0 {
		pages = append(pages, current)
	}
	return pages
}

func measure(index int, group []caption.AsrWord, fillers map[string]struct{}, policy Policy) Chunk {
	start := group[0].StartSec
	end := start
	for _, w := range group {
		end = math.Max(end, math.Max(w.EndSec, w.StartSec))
	}

	shown := make([]string, 0, len(group))
	for _, w := range group {
		if _, filler := fillers[textutil.NormalizeWord(w.Text)]; filler {
			continue
		}
		shown = append(shown, strings.TrimSpace(w.Text))
	}
	text := strings.Join(shown, " ")

	chunk := Chunk{
		Index:     index,
		Text:      text,
		StartMs:   msRound(start * 1000),
		EndMs:     msRound(end * 1000),
		WordCount: len(shown),
		CharCount: textutil.CountLetters(text),
	}
	chunk.DurationMs = msRound(chunk.EndMs - chunk.StartMs)
	chunk.RequiredMinMs = msRound(policy.RequiredMinMs(chunk.WordCount, chunk.CharCount))
	chunk.MeetsMinDuration = chunk.DurationMs >= chunk.RequiredMinMs
	return chunk
}

func msRound(v float64) float64 {
	return math.Round(v*1000) / 1000
}
