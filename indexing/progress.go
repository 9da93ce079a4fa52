package indexing

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker writes a single updating progress line for a run over a
// known number of items. It is safe for concurrent use.
type ProgressTracker struct {
	mu sync.Mutex

	out      io.Writer
	verb     string
	unit     string
	total    int
	interval int

	done     int
	reported int
	start    time.Time
	running  bool
}

// NewProgressTracker reports to out every interval items out of total.
// Lines read "Indexed: 40/100 (40.0%) - 12.5 docs/s, ~5s left".
func NewProgressTracker(out io.Writer, total, interval int) *ProgressTracker {
	return &ProgressTracker{
		out:      out,
		verb:     "Indexed",
		unit:     "docs",
		total:    total,
		interval: max(interval, 1),
	}
}

// WithUnits changes the leading verb and the unit of the rate, for example
// ("Embedded", "pages"). An empty argument keeps the current value.
func (p *ProgressTracker) WithUnits(verb, unit string) *ProgressTracker {
	p.mu.Lock()
	defer p.mu.Unlock()
	if verb != "" {
		p.verb = verb
	}
	if unit != "" {
		p.unit = unit
	}
	return p
}

// Start resets the counters and starts the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.start = time.Now()
	p.running = true
	p.done = 0
	p.reported = 0
}

// Increment records n more completed items. Counts are capped at total.
func (p *ProgressTracker) Increment(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.done = min(p.done+n, p.total)
	if p.done-p.reported >= p.interval {
		p.writeLine()
		p.reported = p.done
	}
}

// Finish reports the run as complete and stops the clock.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.done = p.total
	p.writeLine()
	fmt.Fprintln(p.out)
	p.running = false
}

// Elapsed returns the time since Start, or zero once finished.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return 0
	}
	return time.Since(p.start)
}

func (p *ProgressTracker) writeLine() {
	elapsed := time.Since(p.start)
	var rate float64
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}
	pct := 0.0
	if p.total > 0 {
		pct = float64(p.done) * 100 / float64(p.total)
	}

	line := fmt.Sprintf("\r%s: %d/%d (%.1f%%) - %.1f %s/s", p.verb, p.done, p.total, pct, rate, p.unit)
	if left := p.total - p.done; left > 0 && rate > 0 {
		eta := time.Duration(float64(left) / rate * float64(time.Second))
		line += fmt.Sprintf(", ~%s left", eta.Round(time.Second))
	}
	fmt.Fprint(p.out, line)
}
