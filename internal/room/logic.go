package room

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/gatehouse/internal/circuit"
	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/goal"
	"github.com/roach88/gatehouse/internal/ir"
)

// Preset fixes values a LogicRoom would otherwise generate on Enter.
// Inputs not listed are drawn at random; a nil Target is drawn at random.
type Preset struct {
	Inputs map[string]map[string]bool // group -> input -> value
	Target []bool                     // indexed by group index
}

// Outcome reports the state of a LogicRoom after a placement.
type Outcome struct {
	Changed   int  // OutputChanged events emitted by the refresh
	Satisfied bool // goal register matches its target
	Completed bool // this placement completed the room
}

// LogicRoom is the circuit puzzle: one graph per wiring group, each sink
// feeding the goal bit at its group index.
type LogicRoom struct {
	base
	table  *ir.WiringTable
	preset Preset

	graphs []*circuit.Graph
	byName map[string]*circuit.Graph
	goal   *goal.Register
}

var _ Room = (*LogicRoom)(nil)

// NewLogicRoom creates a room over a compiled wiring table. The room is
// empty until Enter.
func NewLogicRoom(id string, table *ir.WiringTable, opts ...Option) *LogicRoom {
	return &LogicRoom{base: newBase(id, opts), table: table}
}

// SetPreset fixes inputs and target for subsequent visits.
func (r *LogicRoom) SetPreset(p Preset) {
	r.preset = p
}

// Enter rebuilds every graph, attaches input values, draws the target and
// publishes initial outputs.
func (r *LogicRoom) Enter(ctx context.Context) error {
	r.graphs, r.byName, r.goal = nil, nil, nil
	build, err := r.enter(ctx)
	if err != nil || !build {
		return err
	}
	if err := r.build(); err != nil {
		return r.abandon(err)
	}
	for _, g := range r.graphs {
		g.Refresh()
	}
	slog.Debug("logic room built", "room", r.id, "groups", len(r.graphs), "target", r.goal.TargetString())
	return nil
}

// build assembles the graphs and goal of a visit and installs them only
// when every step succeeds.
func (r *LogicRoom) build() error {
	rng, err := r.visitRNG()
	if err != nil {
		return err
	}

	reg := goal.New(len(r.table.Groups))
	graphs := make([]*circuit.Graph, 0, len(r.table.Groups))
	byName := make(map[string]*circuit.Graph, len(r.table.Groups))

	for _, group := range r.table.Groups {
		g := circuit.New(group, circuit.WithSink(reg), circuit.WithEmitter(r.emitter))
		fixed := r.preset.Inputs[group.Name]
		for _, id := range group.Inputs() {
			v, ok := fixed[id]
			if !ok {
				v = rng.Intn(2) == 1
			}
			if err := g.AttachInput(id, v); err != nil {
				return err
			}
		}
		graphs = append(graphs, g)
		byName[group.Name] = g
	}

	if r.preset.Target != nil {
		if err := reg.SetTarget(r.preset.Target); err != nil {
			return err
		}
	} else {
		reg.GenerateTarget(rng)
	}

	r.graphs, r.byName, r.goal = graphs, byName, reg
	return nil
}

// Tick is a no-op: logic rooms have no deferred actions.
func (r *LogicRoom) Tick(context.Context, time.Duration) {}

// Graph returns the circuit of a group.
func (r *LogicRoom) Graph(group string) (*circuit.Graph, bool) {
	g, ok := r.byName[group]
	return g, ok
}

// Goal returns the goal register, nil before the first build.
func (r *LogicRoom) Goal() *goal.Register {
	return r.goal
}

// Table returns the wiring table the room was built from.
func (r *LogicRoom) Table() *ir.WiringTable {
	return r.table
}

func (r *LogicRoom) graph(group string) (*circuit.Graph, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	g, ok := r.byName[group]
	if !ok {
		return nil, reject(engine.NewUnknownGroupError(group))
	}
	return g, nil
}

// PlaceGate places or replaces the gate at a slot, then settles the room.
func (r *LogicRoom) PlaceGate(ctx context.Context, group, slot string, op ir.GateOp, negate bool) (Outcome, error) {
	g, err := r.graph(group)
	if err != nil {
		return Outcome{}, err
	}
	if err := g.PlaceGate(slot, op, negate); err != nil {
		return Outcome{}, reject(err)
	}
	engine.RecordGatePlacement(op.String())
	slog.Info("gate placed", "room", r.id, "group", group, "slot", slot, "op", op, "negate", negate)
	return r.settle(ctx)
}

// RemoveGate empties a slot, then settles the room.
func (r *LogicRoom) RemoveGate(ctx context.Context, group, slot string) (Outcome, error) {
	g, err := r.graph(group)
	if err != nil {
		return Outcome{}, err
	}
	if err := g.RemoveGate(slot); err != nil {
		return Outcome{}, reject(err)
	}
	slog.Info("gate removed", "room", r.id, "group", group, "slot", slot)
	return r.settle(ctx)
}

// AttachInput attaches a leaf the wiring table never declared. Declared
// inputs are attached by Enter, so naming one is a DuplicateInputError.
func (r *LogicRoom) AttachInput(ctx context.Context, group, input string, value bool) (Outcome, error) {
	g, err := r.graph(group)
	if err != nil {
		return Outcome{}, err
	}
	if err := g.AttachInput(input, value); err != nil {
		return Outcome{}, reject(err)
	}
	return r.settle(ctx)
}

// SetTarget replaces the goal target of the current visit.
func (r *LogicRoom) SetTarget(ctx context.Context, bits []bool) (Outcome, error) {
	if err := r.ready(); err != nil {
		return Outcome{}, err
	}
	if err := r.goal.SetTarget(bits); err != nil {
		return Outcome{}, err
	}
	return r.settle(ctx)
}

// settle refreshes every graph, which rewrites every sink bit, and checks
// the goal. The first satisfaction completes the room.
func (r *LogicRoom) settle(ctx context.Context) (Outcome, error) {
	var out Outcome
	for _, g := range r.graphs {
		out.Changed += g.Refresh()
	}
	out.Satisfied = r.goal.CheckGoal()
	if !out.Satisfied {
		return out, nil
	}

	r.emitter.Emit(engine.Event{Kind: engine.KindGoalSatisfied})
	out.Completed = true
	if err := r.complete(ctx); err != nil {
		return out, err
	}
	return out, nil
}
