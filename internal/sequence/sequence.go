// Package sequence abstracts the strictly increasing logical clock the
// gateway stamps every decision with. In the original deployment this is
// blockchain height; the gateway never generates positions itself, it only
// consumes whatever Source the host supplies.
package sequence

import "sync/atomic"

// Source supplies the next sequence position. Implementations must be
// strictly increasing and safe for concurrent use.
type Source interface {
	Next() uint64
}

// Counter is an in-process Source backed by an atomic counter. Suitable
// for hosts without an external clock (the file daemon, tests).
type Counter struct {
	n atomic.Uint64
}

// NewCounter returns a Counter whose first Next() yields start+1.
func NewCounter(start uint64) *Counter {
	c := &Counter{}
	c.n.Store(start)
	return c
}

// Next implements Source.
func (c *Counter) Next() uint64 {
	return c.n.Add(1)
}

// Current returns the last position handed out.
func (c *Counter) Current() uint64 {
	return c.n.Load()
}
