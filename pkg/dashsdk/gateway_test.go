package dashsdk

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGatewayCoalescesByKey(t *testing.T) {
	t.Parallel()

	g := NewGateway(time.Second)
	release := make(chan struct{})
	var calls atomic.Int32

	fn := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "token", nil
	}

	const n = 5
	results := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = g.Refresh(context.Background(), "r1", fn)
		}()
	}

	require.Eventually(t, func() bool { return g.Pending() == n }, time.Second, time.Millisecond)
	require.True(t, g.InFlight("r1"))
	require.Equal(t, 1, g.Active())

	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for i, token := range results {
		require.NoError(t, errs[i])
		require.Equal(t, "token", token)
	}
	require.False(t, g.InFlight("r1"))
	require.Zero(t, g.Pending())
}

func TestGatewayIsolatesKeys(t *testing.T) {
	t.Parallel()

	g := NewGateway(time.Second)
	release := make(chan struct{})
	var calls atomic.Int32

	fn := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "token", nil
	}

	keys := []string{"a", "b"}
	errs := make([]error, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = g.Refresh(context.Background(), key, fn)
		}()
	}

	require.Eventually(t, func() bool { return g.Active() == 2 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 2, calls.Load())
	for _, err := range errs {
		require.NoError(t, err)
	}
}

func TestGatewaySharesFailure(t *testing.T) {
	t.Parallel()

	g := NewGateway(time.Second)
	release := make(chan struct{})
	boom := errors.New("boom")

	fn := func(ctx context.Context) (string, error) {
		<-release
		return "", boom
	}

	const n = 3
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = g.Refresh(context.Background(), "", fn)
		}()
	}

	require.Eventually(t, func() bool { return g.Pending() == n }, time.Second, time.Millisecond)
	require.True(t, g.InFlight(""))
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, boom)
	}
	require.False(t, g.InFlight(""))
}

func TestGatewayWaiterCancellation(t *testing.T) {
	t.Parallel()

	g := NewGateway(time.Second)
	release := make(chan struct{})
	var flightCtxErr atomic.Value

	fn := func(ctx context.Context) (string, error) {
		<-release
		if err := ctx.Err(); err != nil {
			flightCtxErr.Store(err)
		}
		return "token", nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := g.Refresh(leaderCtx, "k", fn)
		leaderDone <- err
	}()
	require.Eventually(t, func() bool { return g.InFlight("k") }, time.Second, time.Millisecond)

	followerDone := make(chan string, 1)
	go func() {
		token, _ := g.Refresh(context.Background(), "k", fn)
		followerDone <- token
	}()
	require.Eventually(t, func() bool { return g.Pending() == 2 }, time.Second, time.Millisecond)

	// The leader gives up; the flight keeps going for the follower.
	cancel()
	require.ErrorIs(t, <-leaderDone, context.Canceled)

	close(release)
	require.Equal(t, "token", <-followerDone)
	require.Nil(t, flightCtxErr.Load())
}

func TestGatewayTimeout(t *testing.T) {
	t.Parallel()

	g := NewGateway(20 * time.Millisecond)

	_, err := g.Refresh(context.Background(), "k", func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, g.InFlight("k"))
}
