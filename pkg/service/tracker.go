package service

import "sync"

// Tracker discards results of computations that were overtaken by a newer one.
// Each run takes a token from Next before starting; when it finishes, Accept
// reports whether its result should still be published.
type Tracker struct {
	mu       sync.Mutex
	issued   uint64
	accepted uint64
}

// Next issues a token greater than every token issued before
func (t *Tracker) Next() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issued++
	return t.issued
}

// Accept returns true when token is newer than the last accepted one
func (t *Tracker) Accept(token uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token <= t.accepted || token > t.issued {
		return false
	}
	t.accepted = token
	return true
}

// Current reports whether token is the most recently issued one
func (t *Tracker) Current(token uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return token == t.issued
}
