package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/gatehouse/internal/bitmatrix"
	"github.com/roach88/gatehouse/internal/ir"
)

// ErrHostStopped is returned for commands submitted after Stop.
var ErrHostStopped = errors.New("host stopped")

// DefaultTickInterval is how often Run advances the current room.
const DefaultTickInterval = 100 * time.Millisecond

// Host is the single-writer loop over a Level.
//
// CRITICAL: All room mutations happen in the Run goroutine. Other goroutines
// submit work through Do and the typed helpers.
//
// Thread-safety model:
//   - Do, EnterRoom, PlaceGate, PlaceSign, Stop: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Host struct {
	level *Level
	queue *commandQueue
	tick  time.Duration
	now   func() time.Time
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithTickInterval sets how often Run ticks the current room. Zero
// disables ticking; rooms then advance only through explicit Tick commands.
func WithTickInterval(d time.Duration) HostOption {
	return func(h *Host) { h.tick = d }
}

// NewHost creates a host over level. Call Run to start processing.
func NewHost(level *Level, opts ...HostOption) *Host {
	h := &Host{
		level: level,
		queue: newCommandQueue(),
		tick:  DefaultTickInterval,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes commands and ticks until ctx is cancelled or Stop is
// called.
//
// ERROR HANDLING: a failing command returns its error to the submitter and
// the loop continues.
func (h *Host) Run(ctx context.Context) error {
	slog.Info("host starting", "tick", h.tick)

	var ticks <-chan time.Time
	if h.tick > 0 {
		ticker := time.NewTicker(h.tick)
		defer ticker.Stop()
		ticks = ticker.C
	}
	last := h.now()

	for {
		if c, ok := h.queue.TryDequeue(); ok {
			c.done <- c.run(ctx, h.level)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("host stopping: context cancelled")
			h.queue.Close()
			h.drain()
			return ctx.Err()

		case <-h.queue.Wait():
			if h.queue.Closed() && h.queue.Len() == 0 {
				slog.Info("host stopping: queue closed")
				return nil
			}

		case t := <-ticks:
			elapsed := t.Sub(last)
			last = t
			if r := h.level.Current(); r != nil {
				r.Tick(ctx, elapsed)
			}
		}
	}
}

// drain fails every command still queued after shutdown.
func (h *Host) drain() {
	for {
		c, ok := h.queue.TryDequeue()
		if !ok {
			return
		}
		c.done <- ErrHostStopped
	}
}

// Stop closes the queue. Run returns once queued commands are processed.
func (h *Host) Stop() {
	h.queue.Close()
}

// Do runs fn on the host loop and waits for its result.
func (h *Host) Do(ctx context.Context, fn func(ctx context.Context, l *Level) error) error {
	c := command{run: fn, done: make(chan error, 1)}
	if !h.queue.Enqueue(c) {
		return ErrHostStopped
	}
	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnterRoom enters a room on the host loop.
func (h *Host) EnterRoom(ctx context.Context, id string) error {
	return h.Do(ctx, func(ctx context.Context, l *Level) error {
		_, err := l.EnterRoom(ctx, id)
		return err
	})
}

// PlaceGate places a gate in the current room, which must be a LogicRoom.
func (h *Host) PlaceGate(ctx context.Context, group, slot string, op ir.GateOp, negate bool) (Outcome, error) {
	var out Outcome
	err := h.Do(ctx, func(ctx context.Context, l *Level) error {
		r, ok := l.Current().(*LogicRoom)
		if !ok {
			return errNotKind("logic")
		}
		var err error
		out, err = r.PlaceGate(ctx, group, slot, op, negate)
		return err
	})
	return out, err
}

// PlaceSign places a sign in the current room, which must be a
// ComparisonRoom.
func (h *Host) PlaceSign(ctx context.Context, group, pair int, kind ir.SignKind) (bitmatrix.Placement, error) {
	var out bitmatrix.Placement
	err := h.Do(ctx, func(ctx context.Context, l *Level) error {
		r, ok := l.Current().(*ComparisonRoom)
		if !ok {
			return errNotKind("comparison")
		}
		var err error
		out, err = r.PlaceSign(ctx, group, pair, kind)
		return err
	})
	return out, err
}

// Tick advances the current room by elapsed on the host loop.
func (h *Host) Tick(ctx context.Context, elapsed time.Duration) error {
	return h.Do(ctx, func(ctx context.Context, l *Level) error {
		if r := l.Current(); r != nil {
			r.Tick(ctx, elapsed)
		}
		return nil
	})
}

func errNotKind(kind string) error {
	return errors.New("current room is not a " + kind + " room")
}
