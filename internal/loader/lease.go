package loader

import (
	"context"
	"sync"
)

// Lease grants use of the cached handle until Release is called.
type Lease struct {
	Handle Handle
	Tier   string

	once    sync.Once
	release func()
}

// Release returns the lease. Repeated calls are no-ops.
func (l *Lease) Release() {
	if l == nil || l.release == nil {
		return
	}
	l.once.Do(l.release)
}

func reentrant(h Handle) bool {
	r, ok := h.(Reentrant)
	return ok && r.Reentrant()
}

// Acquire returns a lease on the cached handle, running the fallback chain
// first when nothing is cached. Non-reentrant handles are leased to one
// caller at a time; Acquire waits for the previous lease or ctx.
func (l *Loader) Acquire(ctx context.Context) (*Lease, error) {
	for {
		c, err := l.ensure(ctx)
		if err != nil {
			return nil, err
		}
		exclusive := !reentrant(c.h)
		if exclusive {
			select {
			case l.slot <- struct{}{}:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		l.mu.Lock()
		if c.retired {
			// invalidated while waiting for the slot
			l.mu.Unlock()
			if exclusive {
				<-l.slot
			}
			continue
		}
		c.refs++
		l.mu.Unlock()
		return &Lease{Handle: c.h, Tier: c.tier, release: func() { l.release(c, exclusive) }}, nil
	}
}

func (l *Loader) release(c *cached, exclusive bool) {
	l.mu.Lock()
	c.refs--
	closeNow := c.retired && c.refs == 0
	l.mu.Unlock()
	if exclusive {
		<-l.slot
	}
	if closeNow {
		l.closeHandle(c)
	}
}

func (l *Loader) ensure(ctx context.Context) (*cached, error) {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	l.mu.Lock()
	c := l.cur
	l.mu.Unlock()
	if c != nil {
		return c, nil
	}
	h, tier, err := l.LoadWithFallback(ctx)
	if err != nil {
		return nil, err
	}
	c = &cached{h: h, tier: tier}
	l.mu.Lock()
	l.cur = c
	l.mu.Unlock()
	return c, nil
}

// Preload runs the fallback chain ahead of the first job.
func (l *Loader) Preload(ctx context.Context) (string, error) {
	c, err := l.ensure(ctx)
	if err != nil {
		return "", err
	}
	return c.tier, nil
}

// Invalidate drops the cached handle so the next Acquire re-runs the chain.
// The handle is closed once its outstanding leases are released.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	c := l.cur
	l.cur = nil
	closeNow := false
	if c != nil {
		c.retired = true
		closeNow = c.refs == 0
	}
	l.mu.Unlock()
	if c != nil {
		l.log.Warn().Str("tier", c.tier).Msg("cached handle invalidated")
	}
	if closeNow {
		l.closeHandle(c)
	}
}

// Close releases the cached handle; used on shutdown.
func (l *Loader) Close() error {
	l.Invalidate()
	return nil
}

func (l *Loader) closeHandle(c *cached) {
	if err := c.h.Close(); err != nil {
		l.log.Warn().Err(err).Str("tier", c.tier).Msg("close handle")
	}
}
