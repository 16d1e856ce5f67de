// Package notify delivers user-facing notifications, such as decay
// deductions, to whatever surfaces are listening.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mudler/xlog"
)

// Notification is a single user-facing message. Data carries machine-readable
// context such as the category id and stat name.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	At    time.Time         `json:"at"`
}

// Notifier delivers notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Func adapts a function to a Notifier.
type Func func(ctx context.Context, n Notification) error

func (f Func) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Log writes notifications to the structured log.
type Log struct{}

func (Log) Notify(_ context.Context, n Notification) error {
	xlog.Info("Notification", "title", n.Title, "body", n.Body)
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Feed keeps the most recent notifications in memory so clients can poll
// them.
type Feed struct {
	mu    sync.Mutex
	clock clockwork.Clock
	buf   []Notification
	next  int
	full  bool
}

// NewFeed returns a feed holding at most size notifications. A size below one
// is treated as one.
func NewFeed(size int, clock clockwork.Clock) *Feed {
	if size < 1 {
		size = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Feed{clock: clock, buf: make([]Notification, size)}
}

func (f *Feed) Notify(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.At.IsZero() {
		n.At = f.clock.Now()
	}
	f.buf[f.next] = n
	f.next = (f.next + 1) % len(f.buf)
	if f.next == 0 {
		f.full = true
	}
	return nil
}

// Recent returns up to n notifications, newest first. n <= 0 returns all.
func (f *Feed) Recent(n int) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := f.next
	if f.full {
		count = len(f.buf)
	}
	if n <= 0 || n > count {
		n = count
	}
	out := make([]Notification, 0, n)
	for i := 1; i <= n; i++ {
		idx := (f.next - i + len(f.buf)) % len(f.buf)
		out = append(out, f.buf[idx])
	}
	return out
}
