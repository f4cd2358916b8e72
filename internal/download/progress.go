// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package download

import "github.com/SnowMediaEnt/snow-media-center/internal/domain"

// Progress caps while the file is not yet durable.
const (
	KnownSizeCap   = 99
	UnknownSizeCap = 95
)

// Tracker turns byte counts into throttled, monotonic percentages.
// Not safe for concurrent use; one tracker belongs to one read loop.
type Tracker struct {
	total    int64
	estimate int64
	step     int
	received int64
	last     int
	done     bool
	report   domain.ProgressFunc
	alive    func() bool
	observe  func(received, total int64)
}

// NewTracker returns a tracker. total is the transport-declared size, 0 when
// unknown, in which case estimate is the denominator. Reports are made only
// when the percentage has grown by at least step points or has reached
// the cap.
func NewTracker(total, estimate int64, step int, report domain.ProgressFunc) *Tracker {
	if step < 1 {
		step = 1
	}

	if estimate <= 0 {
		estimate = 1
	}

	return &Tracker{
		total:    max(total, 0),
		estimate: estimate,
		step:     step,
		report:   report,
	}
}

// WithLiveness makes the tracker drop reports once alive returns false.
func (t *Tracker) WithLiveness(alive func() bool) *Tracker {
	t.alive = alive

	return t
}

// WithObserver also passes byte counts to fn on every report.
func (t *Tracker) WithObserver(fn func(received, total int64)) *Tracker {
	t.observe = fn

	return t
}

// Add records n more received bytes and reports if the threshold is crossed.
func (t *Tracker) Add(n int64) {
	if t.done || n <= 0 {
		return
	}

	t.received += n

	pct, ceiling := t.compute()
	if pct >= t.last+t.step || (pct == ceiling && pct > t.last) {
		t.last = pct
		t.emit(pct)
	}
}

// Complete reports 100 exactly once. Call it only after the file is durable.
func (t *Tracker) Complete() {
	if t.done {
		return
	}

	t.done = true
	t.last = 100
	t.emit(100)
}

// Percent returns the last reported percentage.
func (t *Tracker) Percent() int { return t.last }

// Received returns the bytes counted so far.
func (t *Tracker) Received() int64 { return t.received }

// Total returns the declared size, 0 when unknown.
func (t *Tracker) Total() int64 { return t.total }

func (t *Tracker) compute() (int, int) {
	denominator, ceiling := t.estimate, UnknownSizeCap
	if t.total > 0 {
		denominator, ceiling = t.total, KnownSizeCap
	}

	pct := t.received * 100 / denominator

	return int(min(pct, int64(ceiling))), ceiling
}

func (t *Tracker) emit(pct int) {
	if t.alive != nil && !t.alive() {
		return
	}

	if t.observe != nil {
		t.observe(t.received, t.total)
	}

	if t.report != nil {
		t.report(pct)
	}
}
