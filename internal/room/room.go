package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/random"
)

var (
	// ErrRoomCompleted rejects placements in a solved room.
	ErrRoomCompleted = errors.New("room already completed")
	// ErrRoomLocked rejects entering a room while an earlier one is unsolved.
	ErrRoomLocked = errors.New("room locked")
	// ErrNotEntered rejects placements before the first Enter.
	ErrNotEntered = errors.New("room not entered")
)

// Room is one playable puzzle.
type Room interface {
	ID() string
	// Enter starts a fresh visit: new session, regenerated puzzle. A room
	// the completion store lists is left inert.
	Enter(ctx context.Context) error
	Completed() bool
	// Tick advances the room's deferred actions by elapsed.
	Tick(ctx context.Context, elapsed time.Duration)
}

// Option configures a room.
type Option func(*base)

// WithStore sets the completion store. Without one, completion lives only
// as long as the room value.
func WithStore(s CompletionStore) Option {
	return func(b *base) { b.store = s }
}

// WithEmitter sets the emitter every observation event goes through.
func WithEmitter(e *engine.Emitter) Option {
	return func(b *base) { b.emitter = e }
}

// WithSessions sets the session id generator. Default: UUIDv7.
func WithSessions(g engine.SessionGenerator) Option {
	return func(b *base) { b.sessions = g }
}

// WithRNG fixes the generator used for every visit. Default: a fresh
// crypto-seeded generator per Enter.
func WithRNG(rng *rand.Rand) Option {
	return func(b *base) { b.rng = rng }
}

// base is the lifecycle shared by every room kind.
type base struct {
	id       string
	store    CompletionStore
	emitter  *engine.Emitter
	sessions engine.SessionGenerator
	rng      *rand.Rand

	session   string
	entered   bool
	completed bool
}

func newBase(id string, opts []Option) base {
	b := base{id: id, sessions: engine.UUIDv7Generator{}}
	for _, opt := range opts {
		opt(&b)
	}
	if b.emitter == nil {
		b.emitter = engine.NewEmitter(nil)
	}
	return b
}

// ID returns the room id.
func (b *base) ID() string { return b.id }

// Completed reports whether the room is solved.
func (b *base) Completed() bool { return b.completed }

// Session returns the id of the current visit.
func (b *base) Session() string { return b.session }

// Emitter returns the room's emitter.
func (b *base) Emitter() *engine.Emitter { return b.emitter }

// enter opens a new visit and reports whether the room needs building.
func (b *base) enter(ctx context.Context) (bool, error) {
	b.session = b.sessions.Generate()
	b.emitter.SetScope(b.session, b.id)
	b.entered = true

	if b.store != nil {
		done, err := b.store.IsRoomCompleted(ctx, b.id)
		if err != nil {
			b.entered = false
			return false, fmt.Errorf("enter %s: %w", b.id, err)
		}
		if done {
			b.completed = true
		}
	}
	if b.completed {
		slog.Info("room already completed, left inert", "room", b.id, "session", b.session)
		return false, nil
	}
	slog.Info("room entered", "room", b.id, "session", b.session)
	return true, nil
}

// abandon closes a visit whose build failed, so placements are rejected
// until the next successful Enter.
func (b *base) abandon(err error) error {
	b.entered = false
	slog.Warn("room enter failed", "room", b.id, "session", b.session, "error", err)
	return fmt.Errorf("enter %s: %w", b.id, err)
}

// visitRNG returns the generator for one visit.
func (b *base) visitRNG() (*rand.Rand, error) {
	if b.rng != nil {
		return b.rng, nil
	}
	seed, err := random.NewSeed()
	if err != nil {
		return nil, err
	}
	return random.New(seed), nil
}

// ready rejects placements outside an active, unsolved visit.
func (b *base) ready() error {
	if b.completed {
		return ErrRoomCompleted
	}
	if !b.entered {
		return ErrNotEntered
	}
	return nil
}

// complete marks the room solved, emits RoomCompleted and persists.
// Runs at most once per room value.
func (b *base) complete(ctx context.Context) error {
	if b.completed {
		return nil
	}
	b.completed = true
	engine.RecordRoomCompleted(b.id)
	b.emitter.Emit(engine.Event{Kind: engine.KindRoomCompleted})
	slog.Info("room completed", "room", b.id, "session", b.session)

	if b.store == nil {
		return nil
	}
	if err := b.store.MarkRoomCompleted(ctx, b.id, b.session); err != nil {
		return fmt.Errorf("persist completion of %s: %w", b.id, err)
	}
	return nil
}

// reject counts a refused placement and passes the error through.
func reject(err error) error {
	engine.RecordRejection(err)
	slog.Debug("placement rejected", "error", err)
	return err
}
