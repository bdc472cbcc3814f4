package pacing

import (
	"fmt"
	"strings"
)

// Policy describes how captions are paged and how fast they may be read.
type Policy struct {
	MaxWordsPerPage     int      `toml:"max_words_per_page"`
	MinWordsPerPage     int      `toml:"min_words_per_page"`
	TargetWordsPerChunk int      `toml:"target_words_per_chunk"`
	MaxWordsPerMinute   float64  `toml:"max_words_per_minute"`
	MaxCharsPerSecond   float64  `toml:"max_chars_per_second"`
	MinOnScreenMs       float64  `toml:"min_on_screen_ms"`
	MinOnScreenMsShort  float64  `toml:"min_on_screen_ms_short"`
	ShortChunkWords     int      `toml:"short_chunk_words"`
	FillerWords         []string `toml:"filler_words"`
}

// DefaultPolicy matches the short-form vertical caption layout.
func DefaultPolicy() Policy {
	return Policy{
		MaxWordsPerPage:     6,
		MinWordsPerPage:     2,
		TargetWordsPerChunk: 4,
		MaxWordsPerMinute:   240,
		MaxCharsPerSecond:   20,
		MinOnScreenMs:       1200,
		MinOnScreenMsShort:  800,
		ShortChunkWords:     3,
		FillerWords:         []string{"um", "uh", "erm", "hmm", "mm"},
	}
}

// Validate rejects policies that cannot produce chunks.
func (p Policy) Validate() error {
	switch {
	case p.MaxWordsPerPage <= 0:
		return fmt.Errorf("max_words_per_page must be positive")
	case p.MinWordsPerPage <= 0 || p.MinWordsPerPage > p.MaxWordsPerPage:
		return fmt.Errorf("min_words_per_page must be between 1 and max_words_per_page (%d)", p.MaxWordsPerPage)
	case p.TargetWordsPerChunk < p.MinWordsPerPage:
		return fmt.Errorf("target_words_per_chunk must be at least min_words_per_page (%d)", p.MinWordsPerPage)
	case p.MaxWordsPerMinute <= 0 || p.MaxCharsPerSecond <= 0:
		return fmt.Errorf("reading speed limits must be positive")
	case p.MinOnScreenMs < 0 || p.MinOnScreenMsShort < 0:
		return fmt.Errorf("on-screen floors must be non-negative")
	}
	return nil
}

// pageSize is the greedy accumulation limit.
func (p Policy) pageSize() int {
	size := p.MaxWordsPerPage
	if p.TargetWordsPerChunk > 0 && p.TargetWordsPerChunk < size {
		size = p.TargetWordsPerChunk
	}
	if size < 1 {
		size = 1
	}
	return size
}

func (p Policy) fillerSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.FillerWords))
	for _, w := range p.FillerWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// RequiredMinMs is the minimum on-screen time for a chunk with the given
// displayed word and character counts.
func (p Policy) RequiredMinMs(wordCount, charCount int) float64 {
	floor := p.MinOnScreenMs
	if wordCount < p.ShortChunkWords {
		floor = p.MinOnScreenMsShort
	}
	required := floor
	if p.MaxCharsPerSecond > 0 {
		required = max(required, float64(charCount)/p.MaxCharsPerSecond*1000)
	}
	if p.MaxWordsPerMinute > 0 {
		required = max(required, float64(wordCount)/p.MaxWordsPerMinute*60000)
	}
	return required
}
