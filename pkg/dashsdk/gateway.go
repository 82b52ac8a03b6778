package dashsdk

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a single refresh flight.
const DefaultRefreshTimeout = 10 * time.Second

// defaultFlightKey is used when a caller passes no key.
const defaultFlightKey = "-"

// RefreshFunc obtains a new access token.
type RefreshFunc func(ctx context.Context) (string, error)

// Gateway coordinates token refreshes. At most one refresh runs per key at a
// time; callers arriving while it runs wait for its result instead of
// starting their own. A Gateway is shared by every client that should
// coalesce refreshes, typically one per process.
type Gateway struct {
	group   singleflight.Group
	timeout time.Duration

	mu      sync.Mutex
	flights map[string]struct{}
	waiting int
}

// NewGateway returns a Gateway whose flights give up after timeout.
// A non-positive timeout uses DefaultRefreshTimeout.
func NewGateway(timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	return &Gateway{
		timeout: timeout,
		flights: make(map[string]struct{}),
	}
}

// Refresh joins the flight for key, starting it with fn if none is running.
//
// The flight does not inherit the cancellation of whoever started it: it runs
// until fn returns or the gateway timeout expires, so one caller giving up
// does not fail everyone else. A caller whose ctx ends stops waiting and gets
// ctx.Err().
func (g *Gateway) Refresh(ctx context.Context, key string, fn RefreshFunc) (string, error) {
	if key == "" {
		key = defaultFlightKey
	}

	ch := g.group.DoChan(key, func() (any, error) {
		g.setFlight(key, true)
		defer g.setFlight(key, false)

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()

		return fn(fctx)
	})

	g.mu.Lock()
	g.waiting++
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.waiting--
		g.mu.Unlock()
	}()

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		token, _ := res.Val.(string)
		return token, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// InFlight reports whether a refresh is running for key.
func (g *Gateway) InFlight(key string) bool {
	if key == "" {
		key = defaultFlightKey
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.flights[key]
	return ok
}

// Active returns the number of keys with a refresh running.
func (g *Gateway) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.flights)
}

// Pending returns the number of callers currently waiting on a flight.
func (g *Gateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiting
}

func (g *Gateway) setFlight(key string, on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if on {
		g.flights[key] = struct{}{}
	} else {
		delete(g.flights, key)
	}
}
