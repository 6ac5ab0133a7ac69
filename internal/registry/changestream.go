package registry

import "sync"

// changeStream is an edge-triggered, coalesced broadcast: any number of
// subscribers can wait on current(), and a single broadcast() wakes all of
// them at once by closing the channel and replacing it. This is the
// "condition variable guarding a version counter" shape spec.md's DESIGN
// NOTES §9 asks for, expressed as a channel so callers can select on it
// alongside other channels instead of blocking inside a mutex-guarded wait.
type changeStream struct {
	mu sync.Mutex
	ch chan struct{}
}

func newChangeStream() *changeStream {
	return &changeStream{ch: make(chan struct{})}
}

// current returns the channel to wait on. It is closed exactly once, the
// next time broadcast() runs.
func (c *changeStream) current() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch
}

// broadcast wakes every current subscriber and rotates in a fresh channel
// for the next round.
func (c *changeStream) broadcast() {
	c.mu.Lock()
	defer c.mu.Unlock()
	close(c.ch)
	c.ch = make(chan struct{})
}
