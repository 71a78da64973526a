package ir

import (
	"fmt"
	"strings"
)

// GateOp is the two-input boolean operation a placed gate computes.
type GateOp int

const (
	// GateAnd outputs true only when both inputs are true.
	GateAnd GateOp = iota + 1
	// GateOr outputs true when at least one input is true.
	GateOr
)

// String returns the inventory identifier of the gate ("AND" or "OR").
func (op GateOp) String() string {
	switch op {
	case GateAnd:
		return "AND"
	case GateOr:
		return "OR"
	default:
		return fmt.Sprintf("GateOp(%d)", int(op))
	}
}

// Apply computes the operation over two inputs.
func (op GateOp) Apply(a, b bool) bool {
	switch op {
	case GateAnd:
		return a && b
	case GateOr:
		return a || b
	default:
		return false
	}
}

// ParseGateOp parses "AND" or "OR" case-insensitively.
func ParseGateOp(s string) (GateOp, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AND":
		return GateAnd, nil
	case "OR":
		return GateOr, nil
	default:
		return 0, fmt.Errorf("unknown gate op %q: must be AND or OR", s)
	}
}

// SignKind is the comparison operator a player places between two numbers.
type SignKind int

const (
	// SignGreaterThan asserts left > right.
	SignGreaterThan SignKind = iota + 1
	// SignLessThan asserts left < right.
	SignLessThan
)

// String returns the inventory identifier of the sign.
func (k SignKind) String() string {
	switch k {
	case SignGreaterThan:
		return "GreaterThan"
	case SignLessThan:
		return "LessThan"
	default:
		return fmt.Sprintf("SignKind(%d)", int(k))
	}
}

// Symbol returns the mathematical symbol for the sign.
func (k SignKind) Symbol() string {
	switch k {
	case SignGreaterThan:
		return ">"
	case SignLessThan:
		return "<"
	default:
		return "?"
	}
}

// ParseSignKind accepts "GreaterThan", "LessThan", ">" and "<".
func ParseSignKind(s string) (SignKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "greaterthan", "gt", ">":
		return SignGreaterThan, nil
	case "lessthan", "lt", "<":
		return SignLessThan, nil
	default:
		return 0, fmt.Errorf("unknown sign kind %q: must be GreaterThan or LessThan", s)
	}
}

// NodeKind distinguishes the node variants of a circuit.
type NodeKind int

const (
	// NodeInput is a fixed boolean leaf produced once per room generation.
	NodeInput NodeKind = iota + 1
	// NodeSlot is a placeable position that may hold a gate.
	NodeSlot
)

// String returns "input" or "slot".
func (k NodeKind) String() string {
	switch k {
	case NodeInput:
		return "input"
	case NodeSlot:
		return "slot"
	default:
		return "unknown"
	}
}

// NodeRef is a resolved index into a wiring group's node table.
type NodeRef int

// NoRef marks an input that could not be resolved at load time.
// Unresolved inputs evaluate as false.
const NoRef NodeRef = -1

// Valid reports whether the reference points at a node.
func (r NodeRef) Valid() bool {
	return r >= 0
}

// NodeSpec is one entry of a resolved node table.
type NodeSpec struct {
	ID      string     `json:"id"`
	Kind    NodeKind   `json:"kind"`
	Inputs  [2]NodeRef `json:"inputs"`            // Slots only; NoRef when unresolved
	Negated bool       `json:"negated,omitempty"` // Slot always inverts its gate output
	Sink    bool       `json:"sink,omitempty"`    // Slot output feeds the group's goal bit
}

// WiringGroup is the resolved topology of one wall.
//
// INVARIANT: the reference graph induced by slot Inputs is acyclic. The
// compiler cuts edges inside any strongly connected component before a
// WiringGroup is handed to the runtime.
type WiringGroup struct {
	Name   string     `json:"name"`
	Index  int        `json:"index"`  // Position among accepted groups; also the goal bit index
	Nodes  []NodeSpec `json:"nodes"`  // Inputs first, then slots, in declaration order
	Output NodeRef    `json:"output"` // Sink node, NoRef if the group has none
}

// Lookup returns the reference for a node id.
func (g *WiringGroup) Lookup(id string) (NodeRef, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return NodeRef(i), true
		}
	}
	return NoRef, false
}

// Inputs returns the ids of the group's input nodes in declaration order.
func (g *WiringGroup) Inputs() []string {
	var ids []string
	for _, n := range g.Nodes {
		if n.Kind == NodeInput {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// WiringTable is the compiled wiring of a whole room.
type WiringTable struct {
	Groups []WiringGroup `json:"groups"`
}

// Group returns the group with the given name.
func (t *WiringTable) Group(name string) (*WiringGroup, bool) {
	for i := range t.Groups {
		if t.Groups[i].Name == name {
			return &t.Groups[i], true
		}
	}
	return nil, false
}
