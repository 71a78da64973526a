package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/gatehouse/internal/ir"
)

// Validation error codes (E200-E299) for compiled wiring tables.
const (
	ErrGroupNoSlots      = "E201" // group declares no slots
	ErrGroupNoSink       = "E202" // group has no output slot feeding the goal
	ErrUnresolvedInput   = "E203" // slot input left unresolved
	ErrUnusedInput       = "E204" // input no slot reads
	ErrCycle             = "E205" // slot wiring forms a cycle
	ErrDuplicateGroup    = "E206" // two groups share a name
	ErrInvalidReference  = "E207" // ref out of range or pointing at the wrong node kind
	ErrDuplicateNodeName = "E208" // two nodes share an id within a group
)

// Severities attached to a ValidationError.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError is a rule violation found in a compiled table.
type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a wiring table and returns every problem found.
//
// Tables from CompileWiring never hold cycles or bad references; Validate
// also accepts hand-built tables, so it checks them anyway.
func Validate(table *ir.WiringTable) []ValidationError {
	var errs []ValidationError
	names := make(map[string]bool)

	for gi := range table.Groups {
		g := &table.Groups[gi]
		field := fmt.Sprintf("groups[%d]", gi)
		if g.Name != "" {
			field = g.Name
		}

		if names[g.Name] {
			errs = append(errs, ValidationError{
				Field:    field,
				Message:  fmt.Sprintf("duplicate group name %q", g.Name),
				Code:     ErrDuplicateGroup,
				Severity: SeverityError,
			})
		}
		names[g.Name] = true

		errs = append(errs, validateGroup(field, g)...)
	}
	return errs
}

func validateGroup(field string, g *ir.WiringGroup) []ValidationError {
	var errs []ValidationError
	add := func(f, code, severity, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:    f,
			Message:  fmt.Sprintf(format, args...),
			Code:     code,
			Severity: severity,
		})
	}

	slots := 0
	used := make(map[ir.NodeRef]bool)
	ids := make(map[string]bool)
	for _, n := range g.Nodes {
		if ids[n.ID] {
			add(field+"."+n.ID, ErrDuplicateNodeName, SeverityError, "duplicate node id %q", n.ID)
		}
		ids[n.ID] = true

		if n.Kind != ir.NodeSlot {
			continue
		}
		slots++
		for k, ref := range n.Inputs {
			nodeField := fmt.Sprintf("%s.%s.inputs[%d]", field, n.ID, k)
			switch {
			case !ref.Valid():
				add(nodeField, ErrUnresolvedInput, SeverityWarning, "input is unresolved and reads false")
			case int(ref) >= len(g.Nodes):
				add(nodeField, ErrInvalidReference, SeverityError, "reference %d out of range", ref)
			default:
				used[ref] = true
			}
		}
	}

	if slots == 0 {
		add(field, ErrGroupNoSlots, SeverityError, "group declares no slots")
	}

	switch {
	case !g.Output.Valid():
		add(field+".output", ErrGroupNoSink, SeverityError, "group has no output slot; its goal bit can never be set")
	case int(g.Output) >= len(g.Nodes):
		add(field+".output", ErrInvalidReference, SeverityError, "output reference %d out of range", g.Output)
	case g.Nodes[g.Output].Kind != ir.NodeSlot:
		add(field+".output", ErrInvalidReference, SeverityError, "output %q is not a slot", g.Nodes[g.Output].ID)
	}

	for i, n := range g.Nodes {
		if n.Kind == ir.NodeInput && !used[ir.NodeRef(i)] {
			add(field+"."+n.ID, ErrUnusedInput, SeverityWarning, "input %q is not read by any slot", n.ID)
		}
	}

	for _, path := range FindCycles(g) {
		add(field, ErrCycle, SeverityError, "slot wiring forms a cycle: %s", strings.Join(path, " -> "))
	}

	return errs
}

// HasErrors reports whether any entry has error severity.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}
