package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPollerStopsWhenHandlerDone(t *testing.T) {
	var fetches atomic.Int64
	p := &Poller[int]{
		Interval: 10 * time.Millisecond,
		Fetch: func(ctx context.Context) (int, error) {
			return int(fetches.Add(1)), nil
		},
		Handle: func(v int) bool { return v >= 3 },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))
	require.GreaterOrEqual(t, fetches.Load(), int64(3))
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	p := &Poller[int]{
		Interval: 10 * time.Millisecond,
		Fetch:    func(ctx context.Context) (int, error) { return 1, nil },
		Handle:   func(int) bool { return false },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := p.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPollerKeepsGoingOnTransientErrors(t *testing.T) {
	var fetches atomic.Int64
	p := &Poller[int]{
		Interval: 10 * time.Millisecond,
		Fetch: func(ctx context.Context) (int, error) {
			n := fetches.Add(1)
			if n < 3 {
				return 0, &NetworkError{Err: errors.New("connection refused")}
			}
			return int(n), nil
		},
		Handle: func(int) bool { return true },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))
	require.GreaterOrEqual(t, fetches.Load(), int64(3))
}

func TestPollerStopsOnAuthError(t *testing.T) {
	p := &Poller[int]{
		Interval: 10 * time.Millisecond,
		Fetch: func(ctx context.Context) (int, error) {
			return 0, &AuthError{Err: errors.New("session expired")}
		},
		Handle: func(int) bool { return false },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := p.Run(ctx)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestPollerDropsStaleResults(t *testing.T) {
	// The first round is slow and finishes after the second already
	// delivered. Its result must be dropped, not handed to the handler.
	var fetches atomic.Int64
	var mu sync.Mutex
	seen := []int{}

	p := &Poller[int]{
		Interval: 20 * time.Millisecond,
		Fetch: func(ctx context.Context) (int, error) {
			n := int(fetches.Add(1))
			if n == 1 {
				time.Sleep(100 * time.Millisecond)
			}
			return n, nil
		},
		Handle: func(v int) bool {
			mu.Lock()
			seen = append(seen, v)
			mu.Unlock()
			return v >= 3
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	// The slow first round finishes after Run returned; it must not deliver.
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotContains(t, seen, 1)
	for i := 1; i < len(seen); i++ {
		require.Greater(t, seen[i], seen[i-1])
	}
}

func TestPollerNoHandleAfterRunReturns(t *testing.T) {
	var handles atomic.Int64
	release := make(chan struct{})

	p := &Poller[int]{
		Interval: 10 * time.Millisecond,
		Fetch: func(ctx context.Context) (int, error) {
			<-release
			return 1, nil
		},
		Handle: func(int) bool {
			handles.Add(1)
			return false
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(ctx) }()

	// Let a few rounds start and block inside Fetch, then cancel.
	time.Sleep(30 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-runDone, context.Canceled)

	// Unblock the in-flight rounds; none of them may reach the handler.
	close(release)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int64(0), handles.Load())
}

func TestWatchProposedPrices(t *testing.T) {
	var polls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/client/proposed-prices/", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 2 {
			json.NewEncoder(w).Encode([]ProposedPrice{})
			return
		}
		json.NewEncoder(w).Encode([]ProposedPrice{{UUID: "prop-1", ProposedPrice: "5000", StoreName: "Rosa"}})
	})

	c, _, _ := newTestClient(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []ProposedPrice
	err := c.WatchProposedPrices(ctx, 10*time.Millisecond, func(prices []ProposedPrice) bool {
		got = prices
		return len(prices) > 0
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "5000", got[0].ProposedPrice)
}
