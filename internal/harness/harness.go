package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/gatehouse/internal/compiler"
	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
	"github.com/roach88/gatehouse/internal/random"
	"github.com/roach88/gatehouse/internal/room"
	"github.com/roach88/gatehouse/internal/store"
	"github.com/roach88/gatehouse/internal/testutil"
)

// Harness is the scenario execution engine. It owns the store, the clock
// and the recorder of one run.
type Harness struct {
	store    *store.Store
	clock    *testutil.DeterministicClock
	recorder *engine.Recorder
	log      *store.EventLog
	emitter  *engine.Emitter
	logger   *slog.Logger

	loadErrs   []error
	logic      *room.LogicRoom
	comparison *room.ComparisonRoom
	room       room.Room
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Create the store and mark completed_rooms
//  2. Load the wiring (logic) and build the room
//  3. Enter the room and apply setup overrides
//  4. Execute steps with expect validation
//  5. Check the expect clause and the assertions
//
// A non-nil error means the scenario could not be run at all; failed
// expectations are reported through Result.
func Run(s *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	session := s.Session
	if session == "" {
		session = s.Name
	}
	for _, id := range s.CompletedRooms {
		if err := st.MarkRoomCompleted(ctx, id, session); err != nil {
			return nil, fmt.Errorf("mark %s completed: %w", id, err)
		}
	}

	h := &Harness{
		store:    st,
		clock:    testutil.NewDeterministicClock(),
		recorder: engine.NewRecorder(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	h.log = store.NewEventLog(ctx, st)
	h.emitter = engine.NewEmitter(h.clock, h.recorder, h.log)

	opts := []room.Option{
		room.WithStore(st),
		room.WithEmitter(h.emitter),
		room.WithSessions(testutil.FixedSession(session)),
		room.WithRNG(random.New(s.Seed)),
	}

	result := NewResult()
	result.Session = session

	if err := h.build(s, opts, result); err != nil {
		return nil, err
	}
	if h.room == nil {
		// Wiring did not load; only load_error assertions can say anything.
		h.evaluate(s, result)
		return result, nil
	}

	if err := h.room.Enter(ctx); err != nil {
		return nil, fmt.Errorf("enter room: %w", err)
	}
	if err := h.applyNumbers(s.Setup.Numbers); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	base := h.clock.Current()
	h.logger.Debug("setup done", "scenario", s.Name, "base_seq", base)

	for i, step := range s.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for _, e := range h.recorder.Events() {
		if e.Seq > base {
			result.Trace = append(result.Trace, newTraceEvent(e, base))
		}
	}
	if err := h.log.Err(); err != nil {
		result.AddError(fmt.Sprintf("event log: %v", err))
	}

	result.Completed = h.room.Completed()
	if h.logic != nil && h.logic.Goal() != nil {
		result.Goal = h.logic.Goal().CurrentString()
	}

	h.checkExpect(ctx, s.Expect, result)
	h.evaluate(s, result)
	return result, nil
}

// build constructs the room. Load errors are recorded on the result; a
// wiring that yields no table leaves h.room nil.
func (h *Harness) build(s *Scenario, opts []room.Option, result *Result) error {
	switch s.Room {
	case RoomLogic:
		table, errs := loadWiring(s)
		h.loadErrs = errs
		for _, err := range errs {
			result.LoadErrors = append(result.LoadErrors, err.Error())
		}
		if table == nil {
			return nil
		}
		h.logic = room.NewLogicRoom(s.Room, table, opts...)
		h.logic.SetPreset(room.Preset{Inputs: s.Setup.Inputs, Target: s.Setup.Target})
		h.room = h.logic
	case RoomComparison:
		delay := time.Duration(0)
		if s.Comparison.RetryDelay != "" {
			d, err := time.ParseDuration(s.Comparison.RetryDelay)
			if err != nil {
				return fmt.Errorf("comparison.retry_delay: %w", err)
			}
			delay = d
		}
		r, err := room.NewComparisonRoom(s.Room, s.Comparison.Groups, s.Comparison.NumbersPerGroup, delay, opts...)
		if err != nil {
			return err
		}
		h.comparison = r
		h.room = r
	default:
		return fmt.Errorf("unknown room kind %q", s.Room)
	}
	return nil
}

// loadWiring compiles the scenario's wiring file or inline walls.
func loadWiring(s *Scenario) (*ir.WiringTable, []error) {
	if s.Wiring != "" {
		res, errs := compiler.LoadFile(s.Wiring)
		if res == nil {
			return nil, errs
		}
		return res.Table, errs
	}
	return compiler.Resolve(ir.WallConnections{Walls: s.Walls})
}

func (h *Harness) applyNumbers(numbers []NumberOverride) error {
	if len(numbers) == 0 {
		return nil
	}
	if h.comparison == nil {
		return errors.New("setup.numbers needs a comparison room")
	}
	for _, n := range numbers {
		if err := h.comparison.SetNumber(n.Group, n.Number, byte(n.Value)); err != nil {
			return fmt.Errorf("number %d/%d: %w", n.Group, n.Number, err)
		}
	}
	return nil
}

// stepOutcome is what a step reports, whichever room it ran on.
type stepOutcome struct {
	correct, retry, satisfied, completed bool
}

// executeStep runs one placement and checks its expect block. A step error
// is never fatal: it is compared against expect.error, then the run goes on.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	out, err := h.dispatch(ctx, step)
	if err != nil && !isPlacementError(err) {
		return err
	}

	prefix := fmt.Sprintf("steps[%d]", index)
	exp := step.Expect
	if exp == nil {
		if err != nil {
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, err))
		}
		return nil
	}

	if exp.Error != "" {
		got := errorCode(err)
		if got != exp.Error {
			result.AddError(fmt.Sprintf("%s: expected error %s, got %q", prefix, exp.Error, got))
		}
		return nil
	}
	if err != nil {
		result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, err))
		return nil
	}

	checkBool(result, prefix, "correct", exp.Correct, out.correct)
	checkBool(result, prefix, "retry", exp.Retry, out.retry)
	checkBool(result, prefix, "satisfied", exp.Satisfied, out.satisfied)
	checkBool(result, prefix, "completed", exp.Completed, out.completed)
	return nil
}

func checkBool(result *Result, prefix, field string, want *bool, got bool) {
	if want != nil && *want != got {
		result.AddError(fmt.Sprintf("%s: expected %s=%t, got %t", prefix, field, *want, got))
	}
}

func (h *Harness) dispatch(ctx context.Context, step Step) (stepOutcome, error) {
	switch {
	case step.PlaceGate != nil:
		op, err := ir.ParseGateOp(step.PlaceGate.Op)
		if err != nil {
			return stepOutcome{}, err
		}
		r, err := h.logicRoom()
		if err != nil {
			return stepOutcome{}, err
		}
		return fromOutcome(r.PlaceGate(ctx, step.PlaceGate.Group, step.PlaceGate.Slot, op, step.PlaceGate.Negate))

	case step.RemoveGate != nil:
		r, err := h.logicRoom()
		if err != nil {
			return stepOutcome{}, err
		}
		return fromOutcome(r.RemoveGate(ctx, step.RemoveGate.Group, step.RemoveGate.Slot))

	case step.AttachInput != nil:
		r, err := h.logicRoom()
		if err != nil {
			return stepOutcome{}, err
		}
		return fromOutcome(r.AttachInput(ctx, step.AttachInput.Group, step.AttachInput.Input, step.AttachInput.Value))

	case step.PlaceSign != nil:
		kind, err := ir.ParseSignKind(step.PlaceSign.Sign)
		if err != nil {
			return stepOutcome{}, err
		}
		if h.comparison == nil {
			return stepOutcome{}, errors.New("place_sign needs a comparison room")
		}
		p, err := h.comparison.PlaceSign(ctx, step.PlaceSign.Group, step.PlaceSign.Pair, kind)
		return stepOutcome{correct: p.Correct, retry: p.RetryScheduled, completed: p.Completed}, err

	case step.Tick != "":
		d, err := time.ParseDuration(step.Tick)
		if err != nil {
			return stepOutcome{}, err
		}
		h.room.Tick(ctx, d)
		return stepOutcome{completed: h.room.Completed()}, nil
	}
	return stepOutcome{}, errors.New("step has no action")
}

func (h *Harness) logicRoom() (*room.LogicRoom, error) {
	if h.logic == nil {
		return nil, errors.New("gate steps need a logic room")
	}
	return h.logic, nil
}

func fromOutcome(o room.Outcome, err error) (stepOutcome, error) {
	return stepOutcome{satisfied: o.Satisfied, completed: o.Completed}, err
}

// isPlacementError reports whether err is a refusal the scenario may expect,
// as opposed to a harness or store failure.
func isPlacementError(err error) bool {
	if _, ok := engine.CodeOf(err); ok {
		return true
	}
	return errors.Is(err, room.ErrRoomCompleted) || errors.Is(err, room.ErrNotEntered)
}

// errorCode renders err the way StepExpect.Error names it.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if code, ok := engine.CodeOf(err); ok {
		return string(code)
	}
	if errors.Is(err, room.ErrRoomCompleted) {
		return ErrorRoomCompleted
	}
	return err.Error()
}

// checkExpect validates the expect clause against the room and the store.
func (h *Harness) checkExpect(ctx context.Context, exp *Expect, result *Result) {
	if exp == nil {
		return
	}
	if exp.Completed != nil {
		if result.Completed != *exp.Completed {
			result.AddError(fmt.Sprintf("expect: room completed=%t, got %t", *exp.Completed, result.Completed))
		}
		stored, err := h.store.IsRoomCompleted(ctx, h.room.ID())
		switch {
		case err != nil:
			result.AddError(fmt.Sprintf("expect: read completion: %v", err))
		case stored != *exp.Completed:
			result.AddError(fmt.Sprintf("expect: stored completed=%t, got %t", *exp.Completed, stored))
		}
	}
	if exp.Goal != "" && exp.Goal != result.Goal {
		result.AddError(fmt.Sprintf("expect: goal %q, got %q", exp.Goal, result.Goal))
	}
}

// evaluate runs the scenario's assertions and records their failures.
func (h *Harness) evaluate(s *Scenario, result *Result) {
	actx := &AssertionContext{LoadErrors: h.loadErrs}
	if h.comparison != nil {
		actx.Puzzle = h.comparison.Puzzle()
	}
	for _, msg := range EvaluateAssertions(result, s.Assertions, actx) {
		result.AddError(msg)
	}
}
