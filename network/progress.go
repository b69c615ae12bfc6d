package network

import (
	"io"
	"sync"
)

// Progress is a transfer snapshot. Percent is clamped to [0,100]; when
// Known is false the total size is unknown and Percent stays 0.
type Progress struct {
	Label   string
	Done    int64
	Total   int64
	Percent float64
	Known   bool
}

// NewProgress computes the clamped percentage for done out of total.
func NewProgress(label string, done, total int64) Progress {
	p := Progress{Label: label, Done: done, Total: total}
	if total <= 0 {
		return p
	}
	p.Known = true
	p.Percent = float64(done) / float64(total) * 100
	switch {
	case p.Percent < 0:
		p.Percent = 0
	case p.Percent > 100:
		p.Percent = 100
	}
	return p
}

// Completed is the final snapshot of a finished transfer of n bytes. It is
// known and full even when n is zero.
func Completed(label string, n int64) Progress {
	return Progress{Label: label, Done: n, Total: n, Percent: 100, Known: true}
}

// Meter forwards progress to fn, never letting the percentage go backwards.
type Meter struct {
	mu   sync.Mutex
	fn   func(Progress)
	last float64
}

func NewMeter(fn func(Progress)) *Meter {
	return &Meter{fn: fn}
}

func (m *Meter) Report(p Progress) {
	if m == nil || m.fn == nil {
		return
	}
	m.mu.Lock()
	if p.Percent < m.last {
		p.Percent = m.last
	}
	m.last = p.Percent
	m.mu.Unlock()
	m.fn(p)
}

// countingWriter counts bytes flowing to w and calls onWrite with the total.
type countingWriter struct {
	w       io.Writer
	n       int64
	onWrite func(int64)
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if c.onWrite != nil && n > 0 {
		c.onWrite(c.n)
	}
	return n, err
}
