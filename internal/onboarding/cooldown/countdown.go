// Package cooldown provides a cancellable per-second countdown used to gate code re-sends.
package cooldown

import (
	"sync"
	"time"
)

// DefaultSeconds is the wait imposed after a code has been sent.
const DefaultSeconds = 60

// Ticker is the subset of *time.Ticker the countdown needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Countdown decrements an integer once per tick until it reaches zero.
// Start and Stop may be called from any goroutine; the observer runs on the countdown goroutine
// and must not call Start or Stop on the same countdown.
type Countdown struct {
	ctl       sync.Mutex // serialises Start and Stop
	mu        sync.Mutex
	remaining int
	stop      chan struct{}
	wg        sync.WaitGroup

	interval  time.Duration
	newTicker TickerFunc
	observer  func(remaining int)
}

// Option configures a Countdown.
type Option func(*Countdown)

// WithTicker replaces the ticker source (tests use a manual ticker).
func WithTicker(f TickerFunc) Option {
	return func(c *Countdown) { c.newTicker = f }
}

// WithInterval sets the tick interval; default one second.
func WithInterval(d time.Duration) Option {
	return func(c *Countdown) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithObserver registers fn to receive every remaining value after a decrement, including the final 0.
func WithObserver(fn func(remaining int)) Option {
	return func(c *Countdown) { c.observer = fn }
}

// New returns a stopped countdown at zero.
func New(opts ...Option) *Countdown {
	c := &Countdown{
		interval:  time.Second,
		newTicker: NewRealTicker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start (re)starts the countdown at seconds. A running countdown is stopped first.
// seconds <= 0 leaves the countdown stopped at zero.
func (c *Countdown) Start(seconds int) {
	c.ctl.Lock()
	defer c.ctl.Unlock()
	c.halt()
	if seconds <= 0 {
		return
	}
	stop := make(chan struct{})
	ticker := c.newTicker(c.interval)

	c.mu.Lock()
	c.remaining = seconds
	c.stop = stop
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(ticker, stop)
}

func (c *Countdown) run(ticker Ticker, stop chan struct{}) {
	defer c.wg.Done()
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
		}
		c.mu.Lock()
		if c.stop != stop {
			// Superseded by Stop between the tick and the lock.
			c.mu.Unlock()
			return
		}
		c.remaining--
		left := c.remaining
		if left <= 0 {
			c.remaining = 0
			c.stop = nil
		}
		c.mu.Unlock()

		if c.observer != nil {
			c.observer(left)
		}
		if left <= 0 {
			return
		}
	}
}

// Stop halts the countdown, resets it to zero and waits for the ticking goroutine to exit.
// Safe to call on a stopped countdown.
func (c *Countdown) Stop() {
	c.ctl.Lock()
	defer c.ctl.Unlock()
	c.halt()
}

func (c *Countdown) halt() {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.remaining = 0
	c.mu.Unlock()
	c.wg.Wait()
}

// Remaining returns the seconds left; zero when stopped or expired.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether the countdown is above zero.
func (c *Countdown) Running() bool {
	return c.Remaining() > 0
}
