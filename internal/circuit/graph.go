package circuit

import (
	"log/slog"

	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
)

// Sink receives the output of a group's sink slot. goal.Register implements it.
type Sink interface {
	SetBit(index int, value bool)
	ClearBit(index int)
}

// Gate is a placed logic gate.
type Gate struct {
	Op     ir.GateOp
	Negate bool
}

type node struct {
	spec     ir.NodeSpec
	value    bool // inputs only
	attached bool // inputs only
	gate     *Gate
}

// Graph owns every node of one wiring group.
type Graph struct {
	name    string
	index   int
	nodes   []node
	refs    map[string]ir.NodeRef
	output  ir.NodeRef
	sink    Sink
	emitter *engine.Emitter

	observed map[ir.NodeRef]bool // Output seen by the last Refresh
}

// Option configures a Graph.
type Option func(*Graph)

// WithSink routes the sink slot's output to s at the group's index.
func WithSink(s Sink) Option {
	return func(g *Graph) { g.sink = s }
}

// WithEmitter sets the emitter for OutputChanged events.
func WithEmitter(e *engine.Emitter) Option {
	return func(g *Graph) { g.emitter = e }
}

// New builds an empty graph: no input attached, no gate placed.
func New(group ir.WiringGroup, opts ...Option) *Graph {
	g := &Graph{
		name:   group.Name,
		index:  group.Index,
		nodes:  make([]node, len(group.Nodes)),
		refs:   make(map[string]ir.NodeRef, len(group.Nodes)),
		output: group.Output,

		observed: make(map[ir.NodeRef]bool),
	}
	for i, spec := range group.Nodes {
		g.nodes[i] = node{spec: spec}
		g.refs[spec.ID] = ir.NodeRef(i)
	}
	if int(g.output) >= len(g.nodes) {
		g.output = ir.NoRef
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the wiring group name.
func (g *Graph) Name() string { return g.name }

// Index returns the group index, which is also its goal bit.
func (g *Graph) Index() int { return g.index }

// Ref resolves a node id.
func (g *Graph) Ref(id string) (ir.NodeRef, bool) {
	ref, ok := g.refs[id]
	return ref, ok
}

// Inputs returns the input ids in table order.
func (g *Graph) Inputs() []string {
	return g.idsOfKind(ir.NodeInput)
}

// Slots returns the slot ids in table order.
func (g *Graph) Slots() []string {
	return g.idsOfKind(ir.NodeSlot)
}

func (g *Graph) idsOfKind(kind ir.NodeKind) []string {
	var ids []string
	for _, n := range g.nodes {
		if n.spec.Kind == kind {
			ids = append(ids, n.spec.ID)
		}
	}
	return ids
}

// AttachInput sets the value of an input leaf. Attaching a declared input a
// second time is a DuplicateInputError. An id the table does not know is
// registered as a new leaf that nothing reads.
func (g *Graph) AttachInput(id string, value bool) error {
	ref, ok := g.refs[id]
	if !ok {
		g.refs[id] = ir.NodeRef(len(g.nodes))
		g.nodes = append(g.nodes, node{
			spec:     ir.NodeSpec{ID: id, Kind: ir.NodeInput, Inputs: [2]ir.NodeRef{ir.NoRef, ir.NoRef}},
			value:    value,
			attached: true,
		})
		slog.Debug("unreferenced input attached", "group", g.name, "input", id)
		return nil
	}

	n := &g.nodes[ref]
	if n.spec.Kind != ir.NodeInput {
		return engine.NewInvalidPlacementError(g.name, id, "not an input")
	}
	if n.attached {
		return engine.NewDuplicateInputError(g.name, id)
	}
	n.value = value
	n.attached = true
	return nil
}

// InputValue returns the attached value of an input.
func (g *Graph) InputValue(id string) (value, attached bool) {
	ref, ok := g.refs[id]
	if !ok || g.nodes[ref].spec.Kind != ir.NodeInput {
		return false, false
	}
	return g.nodes[ref].value, g.nodes[ref].attached
}

// PlaceGate creates or replaces the gate at slotID. The slot's own negation
// flag and negate combine by OR.
func (g *Graph) PlaceGate(slotID string, op ir.GateOp, negate bool) error {
	n, err := g.slot(slotID)
	if err != nil {
		return err
	}
	if op != ir.GateAnd && op != ir.GateOr {
		return engine.NewInvalidPlacementError(g.name, slotID, "unknown gate op "+op.String())
	}
	n.gate = &Gate{Op: op, Negate: negate}
	return nil
}

// RemoveGate returns slotID to the empty state. Emptying the sink slot
// clears its goal bit.
func (g *Graph) RemoveGate(slotID string) error {
	n, err := g.slot(slotID)
	if err != nil {
		return err
	}
	n.gate = nil
	if g.sink != nil && g.refs[slotID] == g.output {
		g.sink.ClearBit(g.index)
	}
	return nil
}

// GateAt returns the gate placed at slotID.
func (g *Graph) GateAt(slotID string) (Gate, bool) {
	n, err := g.slot(slotID)
	if err != nil || n.gate == nil {
		return Gate{}, false
	}
	return *n.gate, true
}

func (g *Graph) slot(id string) (*node, error) {
	ref, ok := g.refs[id]
	if !ok {
		return nil, engine.NewInvalidPlacementError(g.name, id, "no such slot")
	}
	n := &g.nodes[ref]
	if n.spec.Kind != ir.NodeSlot {
		return nil, engine.NewInvalidPlacementError(g.name, id, "not a slot")
	}
	return n, nil
}

// Evaluate computes the output of ref.
//
// An input returns its value (false until attached). An empty slot returns
// false. A gated slot applies its op to both inputs, unresolved inputs
// reading false, then inverts if negated. When ref is the sink slot and a
// gate is placed, the result is also written to the sink. The returned value
// is the final one, after negation.
func (g *Graph) Evaluate(ref ir.NodeRef) bool {
	return g.eval(ref, 0)
}

func (g *Graph) eval(ref ir.NodeRef, depth int) bool {
	// A path longer than the node table can only come from a cycle in a
	// hand-built table; it reads false.
	if !ref.Valid() || int(ref) >= len(g.nodes) || depth > len(g.nodes) {
		return false
	}
	n := &g.nodes[ref]
	if n.spec.Kind == ir.NodeInput {
		return n.value
	}
	if n.gate == nil {
		return false
	}

	a := g.eval(n.spec.Inputs[0], depth+1)
	b := g.eval(n.spec.Inputs[1], depth+1)
	result := n.gate.Op.Apply(a, b)
	if n.gate.Negate || n.spec.Negated {
		result = !result
	}

	if ref == g.output && g.sink != nil {
		g.sink.SetBit(g.index, result)
	}
	return result
}

// EvaluateID evaluates a node by id.
func (g *Graph) EvaluateID(id string) (bool, error) {
	ref, ok := g.refs[id]
	if !ok {
		return false, engine.NewInvalidPlacementError(g.name, id, "no such node")
	}
	return g.Evaluate(ref), nil
}

// Output evaluates the sink slot. ok is false when the group has no sink.
func (g *Graph) Output() (value, ok bool) {
	if !g.output.Valid() {
		return false, false
	}
	return g.Evaluate(g.output), true
}

// Refresh evaluates every node and emits OutputChanged for each node whose
// output differs from the previous refresh. A node is always emitted by the
// first refresh that sees it. Returns the number of events emitted.
func (g *Graph) Refresh() int {
	changed := 0
	for i := range g.nodes {
		ref := ir.NodeRef(i)
		v := g.Evaluate(ref)
		if prev, seen := g.observed[ref]; seen && prev == v {
			continue
		}
		g.observed[ref] = v
		changed++
		g.emitter.Emit(engine.Event{
			Kind:  engine.KindOutputChanged,
			Group: g.index,
			Node:  g.nodes[i].spec.ID,
			Value: v,
		})
	}
	return changed
}
