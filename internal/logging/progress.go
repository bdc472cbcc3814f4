package logging

import "sync"

// Progress counts completed work items and reports when a log line is due.
// It is safe for concurrent use.
type Progress struct {
	mu    sync.Mutex
	total int
	step  float64
	done  int
	next  float64
}

// NewProgress tracks total items and emits every stepPercent of completion.
// A non-positive step defaults to 10%.
func NewProgress(total int, stepPercent float64) *Progress {
	if stepPercent <= 0 {
		stepPercent = 10
	}
	return &Progress{total: total, step: stepPercent, next: stepPercent}
}

// Tick records one finished item. It returns the running count and whether the
// count crossed the next reporting mark; the final item always reports.
func (p *Progress) Tick() (int, bool) {
	if p == nil {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if p.total <= 0 {
		return p.done, false
	}
	if p.done >= p.total {
		if p.next > 100 {
			return p.done, false
		}
		p.next = 101
		return p.done, true
	}
	pct := float64(p.done) * 100 / float64(p.total)
	if pct < p.next {
		return p.done, false
	}
	for p.next <= pct {
		p.next += p.step
	}
	return p.done, true
}

// Total returns the item count the tracker was built with.
func (p *Progress) Total() int {
	if p == nil {
		return 0
	}
	return p.total
}
