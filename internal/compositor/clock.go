package compositor

import (
	"context"
	"sync"
	"time"
)

// Clock is the refresh signal driving the compositor.
type Clock interface {
	Ticks() <-chan time.Time
	Stop()
}

// TickerClock ticks at a fixed display refresh rate.
type TickerClock struct {
	ticker *time.Ticker
}

func NewTickerClock(hz float64) *TickerClock {
	if hz <= 0 {
		hz = 60
	}
	return &TickerClock{ticker: time.NewTicker(time.Duration(float64(time.Second) / hz))}
}

func (c *TickerClock) Ticks() <-chan time.Time { return c.ticker.C }
func (c *TickerClock) Stop()                   { c.ticker.Stop() }

// ManualClock ticks only when Tick is called. Frames are produced as fast as
// the caller drives it.
type ManualClock struct {
	ch   chan time.Time
	once sync.Once
	stop chan struct{}
}

func NewManualClock() *ManualClock {
	return &ManualClock{ch: make(chan time.Time), stop: make(chan struct{})}
}

func (c *ManualClock) Ticks() <-chan time.Time { return c.ch }

// Tick delivers one tick and blocks until the loop has taken it. It returns
// false once the clock is stopped.
func (c *ManualClock) Tick(now time.Time) bool {
	select {
	case c.ch <- now:
		return true
	case <-c.stop:
		return false
	}
}

func (c *ManualClock) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Loop invokes a callback on every clock tick with an explicit start/cancel
// lifecycle. The callback never runs after Cancel returns.
type Loop struct {
	clock Clock
	fn    func(now time.Time)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLoop(clock Clock, fn func(now time.Time)) *Loop {
	return &Loop{clock: clock, fn: fn}
}

// Start launches the loop. Starting a running loop is a no-op.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	go func() {
		defer close(done)
		defer l.clock.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now, ok := <-l.clock.Ticks():
				if !ok {
					return
				}
				// A cancel racing with a tick wins.
				if ctx.Err() != nil {
					return
				}
				l.fn(now)
			}
		}
	}()
}

// Cancel stops the loop and the clock and waits for the callback to finish.
func (l *Loop) Cancel() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the loop exits. Nil before Start.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}
