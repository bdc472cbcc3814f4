package textutil

import "math"

// Fingerprint is a bag of normalized words with a precomputed magnitude.
type Fingerprint struct {
	counts map[string]int
	mag    float64
}

// NewFingerprint builds a fingerprint from the normalized words of text.
// Text without any words yields nil.
func NewFingerprint(text string) *Fingerprint {
	words := Words(text)
	if len(words) == 0 {
		return nil
	}
	fp := &Fingerprint{counts: make(map[string]int, len(words))}
	for _, w := range words {
		fp.counts[w]++
	}
	sum := 0
	for _, n := range fp.counts {
		sum += n * n
	}
	fp.mag = math.Sqrt(float64(sum))
	return fp
}

// Len reports the number of distinct words.
func (f *Fingerprint) Len() int {
	if f == nil {
		return 0
	}
	return len(f.counts)
}

// CosineSimilarity returns the cosine of the angle between two word bags,
// in [0,1]. A nil fingerprint on either side scores 0.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil {
		return 0
	}
	small, large := a, b
	if len(large.counts) < len(small.counts) {
		small, large = large, small
	}
	dot := 0
	for w, n := range small.counts {
		dot += n * large.counts[w]
	}
	if dot == 0 {
		return 0
	}
	return math.Min(1, float64(dot)/(a.mag*b.mag))
}
