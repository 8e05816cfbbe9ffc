package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PollInterval is the default gap between polling rounds.
const PollInterval = 5 * time.Second

// Poller periodically runs a fetch and hands each result to a handler.
// Rounds are sequence numbered: if a slow round finishes after a newer one
// already delivered, its stale result is dropped instead of overwriting
// fresher state. The handler returns true to stop polling.
type Poller[T any] struct {
	Interval time.Duration
	Fetch    func(ctx context.Context) (T, error)
	Handle   func(value T) (done bool)
	Log      *zap.Logger

	mu        sync.Mutex
	seq       uint64
	delivered uint64
	stopped   bool
}

// Run polls until the handler reports done, the context is cancelled, or an
// AuthError ends the session. Other errors are logged and the next round
// proceeds.
func (p *Poller[T]) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = PollInterval
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	done := make(chan struct{})
	var closeOnce sync.Once
	errc := make(chan error, 1)

	round := func(seq uint64) {
		value, err := p.Fetch(ctx)
		if err != nil {
			if _, ok := asAuthError(err); ok {
				p.mu.Lock()
				p.stopped = true
				p.mu.Unlock()
				select {
				case errc <- err:
				default:
				}
				closeOnce.Do(func() { close(done) })
				return
			}
			log.Warn("poll round failed", zap.Uint64("seq", seq), zap.Error(err))
			return
		}

		// stopped covers rounds that finish after Run has returned; the
		// seq check covers slow rounds overtaken by a newer delivery.
		p.mu.Lock()
		if p.stopped || seq < p.delivered {
			p.mu.Unlock()
			log.Debug("dropping stale poll result", zap.Uint64("seq", seq))
			return
		}
		p.delivered = seq
		stop := p.Handle(value)
		if stop {
			p.stopped = true
		}
		p.mu.Unlock()

		if stop {
			closeOnce.Do(func() { close(done) })
		}
	}

	p.mu.Lock()
	p.seq++
	first := p.seq
	p.mu.Unlock()
	go round(first)

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.stopped = true
			p.mu.Unlock()
			return ctx.Err()
		case <-done:
			select {
			case err := <-errc:
				return err
			default:
				return nil
			}
		case <-ticker.C:
			p.mu.Lock()
			p.seq++
			seq := p.seq
			p.mu.Unlock()
			go round(seq)
		}
	}
}

func asAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// WatchProposedPrices polls the client's offer list every interval and calls
// handle with each fresh result.
func (c *Client) WatchProposedPrices(ctx context.Context, interval time.Duration, handle func([]ProposedPrice) bool) error {
	p := &Poller[[]ProposedPrice]{
		Interval: interval,
		Fetch:    c.ProposedPrices,
		Handle:   handle,
		Log:      c.log,
	}
	return p.Run(ctx)
}

// WatchCurrentOrder polls /me/ every interval and hands the active order, or
// nil once there is none, to handle.
func (c *Client) WatchCurrentOrder(ctx context.Context, interval time.Duration, handle func(*CurrentOrder) bool) error {
	p := &Poller[*CurrentOrder]{
		Interval: interval,
		Fetch: func(ctx context.Context) (*CurrentOrder, error) {
			user, err := c.Me(ctx)
			if err != nil {
				return nil, err
			}
			return user.CurrentOrder, nil
		},
		Handle: handle,
		Log:    c.log,
	}
	return p.Run(ctx)
}

// WatchIncomingOrders polls the store's pending-order feed every interval.
func (c *Client) WatchIncomingOrders(ctx context.Context, interval time.Duration, handle func([]IncomingOrder) bool) error {
	p := &Poller[[]IncomingOrder]{
		Interval: interval,
		Fetch:    c.IncomingOrders,
		Handle:   handle,
		Log:      c.log,
	}
	return p.Run(ctx)
}
