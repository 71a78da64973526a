package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
)

// Resolve turns config records into a name-resolved wiring table.
//
// Names are resolved once, here. A source naming neither a slot nor an
// input of the same group yields a MissingReferenceError and that input
// stays ir.NoRef. Walls without an inputs list take every Input_-prefixed
// source as an input. Reference cycles are reported and cut. Resolve never
// touches evaluation state.
func Resolve(doc ir.WallConnections) (*ir.WiringTable, []error) {
	var errs []error
	table := &ir.WiringTable{Groups: []ir.WiringGroup{}}
	seen := make(map[string]bool)

	for i, wall := range doc.Walls {
		field := fmt.Sprintf("walls[%d]", i)
		if wall.WallName == "" {
			errs = append(errs, &CompileError{
				Field:   field + ".wallName",
				Message: "wallName is required",
				Err:     engine.NewUnknownGroupError(""),
			})
			continue
		}
		if seen[wall.WallName] {
			errs = append(errs, &CompileError{
				Field:   field + ".wallName",
				Message: fmt.Sprintf("duplicate wallName %q, entry skipped", wall.WallName),
			})
			continue
		}
		seen[wall.WallName] = true

		group, groupErrs := resolveGroup(wall, len(table.Groups))
		errs = append(errs, groupErrs...)
		table.Groups = append(table.Groups, group)
	}

	for _, err := range errs {
		slog.Warn("wiring entry rejected", "error", err)
	}
	return table, errs
}

// ImplicitInputPrefix marks source names that become inputs when a wall
// declares no inputs list. Any other unknown name is a missing reference.
const ImplicitInputPrefix = "Input_"

func resolveGroup(wall ir.WallConfig, index int) (ir.WiringGroup, []error) {
	var errs []error
	group := ir.WiringGroup{Name: wall.WallName, Index: index, Output: ir.NoRef}
	refs := make(map[string]ir.NodeRef)

	addNode := func(spec ir.NodeSpec) {
		refs[spec.ID] = ir.NodeRef(len(group.Nodes))
		group.Nodes = append(group.Nodes, spec)
	}
	unwired := [2]ir.NodeRef{ir.NoRef, ir.NoRef}

	for _, in := range wall.Inputs {
		if _, dup := refs[in]; dup {
			errs = append(errs, &CompileError{
				Field:   wall.WallName + ".inputs",
				Message: fmt.Sprintf("duplicate input %q, entry skipped", in),
			})
			continue
		}
		addNode(ir.NodeSpec{ID: in, Kind: ir.NodeInput, Inputs: unwired})
	}

	// Accept slots before resolving anything so sources may name slots
	// declared later in the list.
	var slots []ir.SlotConfig
	slotNames := make(map[string]bool)
	for _, slot := range wall.Slots {
		_, clashesInput := refs[slot.SlotName]
		if slotNames[slot.SlotName] || clashesInput {
			errs = append(errs, &CompileError{
				Field:   wall.WallName + "." + slot.SlotName,
				Message: fmt.Sprintf("duplicate node name %q, slot skipped", slot.SlotName),
			})
			continue
		}
		slotNames[slot.SlotName] = true
		slots = append(slots, slot)
	}

	if wall.Inputs == nil {
		for _, slot := range slots {
			for _, src := range sources(slot) {
				if src == "" || slotNames[src] || !strings.HasPrefix(src, ImplicitInputPrefix) {
					continue
				}
				if _, ok := refs[src]; !ok {
					addNode(ir.NodeSpec{ID: src, Kind: ir.NodeInput, Inputs: unwired})
				}
			}
		}
	}

	firstSlot := len(group.Nodes)
	for _, slot := range slots {
		addNode(ir.NodeSpec{ID: slot.SlotName, Kind: ir.NodeSlot, Inputs: unwired, Negated: slot.Negated})
	}

	for i, slot := range slots {
		node := &group.Nodes[firstSlot+i]
		if len(slot.Inputs) != 2 {
			errs = append(errs, engine.NewArityMismatchError(wall.WallName, slot.SlotName, len(slot.Inputs)))
		}
		for k, src := range sources(slot) {
			if src == "" {
				continue
			}
			ref, ok := refs[src]
			if !ok {
				errs = append(errs, engine.NewMissingReferenceError(wall.WallName, slot.SlotName, src))
				continue
			}
			node.Inputs[k] = ref
		}
	}

	switch {
	case wall.Output != "":
		if slotNames[wall.Output] {
			group.Output = refs[wall.Output]
		} else {
			errs = append(errs, engine.NewMissingReferenceError(wall.WallName, "output", wall.Output))
		}
	case len(slots) > 0:
		group.Output = ir.NodeRef(len(group.Nodes) - 1)
	}
	if group.Output.Valid() {
		group.Nodes[group.Output].Sink = true
	}

	errs = append(errs, cutCycles(&group)...)
	return group, errs
}

// sources returns at most the first two source names of a slot. Extra names
// are ignored; missing ones are "".
func sources(slot ir.SlotConfig) [2]string {
	var out [2]string
	copy(out[:], slot.Inputs)
	return out
}
