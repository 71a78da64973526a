package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
)

// CompileWiring parses and resolves a wiring document.
//
// The value must be the document root, holding a "walls" list. Malformed
// entries are rejected one at a time and reported; the rest of the document
// still compiles. The returned table is never nil and is acyclic.
func CompileWiring(v cue.Value) (*ir.WiringTable, []error) {
	doc, errs := ParseWiring(v)
	table, resolveErrs := Resolve(doc)
	return table, append(errs, resolveErrs...)
}

// ParseWiring decodes the document into config records without resolving
// names. Entries that are not well-formed (missing names, wrong value kinds)
// are skipped with a positioned CompileError.
func ParseWiring(v cue.Value) (ir.WallConnections, []error) {
	var (
		doc  ir.WallConnections
		errs []error
	)

	if err := v.Err(); err != nil {
		return doc, []error{formatCUEError("document", err)}
	}

	wallsVal := v.LookupPath(cue.ParsePath("walls"))
	if !wallsVal.Exists() {
		return doc, []error{&CompileError{
			Field:   "walls",
			Message: "walls is required",
			Pos:     v.Pos(),
		}}
	}

	iter, err := wallsVal.List()
	if err != nil {
		return doc, []error{formatCUEError("walls", err)}
	}

	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("walls[%d]", i)
		wall, wallErrs := parseWall(field, iter.Value())
		errs = append(errs, wallErrs...)
		if wall != nil {
			doc.Walls = append(doc.Walls, *wall)
		}
	}

	return doc, errs
}

// parseWall returns nil when the entry has to be rejected as a whole.
func parseWall(field string, v cue.Value) (*ir.WallConfig, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(field, err)}
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, []error{&CompileError{Field: field, Message: "wall entry must be an object", Pos: v.Pos()}}
	}

	name, ok, err := optionalString(v, "wallName")
	if err != nil {
		return nil, []error{formatCUEError(field+".wallName", err)}
	}
	if !ok || name == "" {
		return nil, []error{&CompileError{
			Field:   field + ".wallName",
			Message: "wallName is required",
			Pos:     v.Pos(),
			Err:     engine.NewUnknownGroupError(""),
		}}
	}

	var errs []error
	wall := &ir.WallConfig{WallName: name}

	if inputsVal := v.LookupPath(cue.ParsePath("inputs")); inputsVal.Exists() {
		names, nameErrs := parseNames(field+".inputs", inputsVal)
		errs = append(errs, nameErrs...)
		wall.Inputs = make([]string, 0, len(names))
		for _, n := range names {
			if n != "" {
				wall.Inputs = append(wall.Inputs, n)
			}
		}
	}

	output, _, err := optionalString(v, "output")
	if err != nil {
		errs = append(errs, formatCUEError(field+".output", err))
	}
	wall.Output = output

	slotsVal := v.LookupPath(cue.ParsePath("slots"))
	if !slotsVal.Exists() {
		errs = append(errs, &CompileError{Field: field + ".slots", Message: "slots is required", Pos: v.Pos()})
		return wall, errs
	}
	iter, err := slotsVal.List()
	if err != nil {
		errs = append(errs, formatCUEError(field+".slots", err))
		return wall, errs
	}
	for j := 0; iter.Next(); j++ {
		slot, slotErrs := parseSlot(fmt.Sprintf("%s.slots[%d]", field, j), iter.Value())
		errs = append(errs, slotErrs...)
		if slot != nil {
			wall.Slots = append(wall.Slots, *slot)
		}
	}

	return wall, errs
}

func parseSlot(field string, v cue.Value) (*ir.SlotConfig, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(field, err)}
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, []error{&CompileError{Field: field, Message: "slot entry must be an object", Pos: v.Pos()}}
	}

	name, ok, err := optionalString(v, "slotName")
	if err != nil {
		return nil, []error{formatCUEError(field+".slotName", err)}
	}
	if !ok || name == "" {
		return nil, []error{&CompileError{Field: field + ".slotName", Message: "slotName is required", Pos: v.Pos()}}
	}

	var errs []error
	slot := &ir.SlotConfig{SlotName: name}

	inputsVal := v.LookupPath(cue.ParsePath("inputs"))
	if inputsVal.Exists() {
		names, nameErrs := parseNames(field+".inputs", inputsVal)
		errs = append(errs, nameErrs...)
		slot.Inputs = names
	}

	negVal := v.LookupPath(cue.ParsePath("negated"))
	if negVal.Exists() {
		neg, err := negVal.Bool()
		if err != nil {
			errs = append(errs, formatCUEError(field+".negated", err))
		}
		slot.Negated = neg
	}

	return slot, errs
}

// parseNames decodes a list of identifiers. Non-string elements are reported
// and kept as "" so the list keeps its arity.
func parseNames(field string, v cue.Value) ([]string, []error) {
	iter, err := v.List()
	if err != nil {
		return nil, []error{formatCUEError(field, err)}
	}

	var (
		names []string
		errs  []error
	)
	for k := 0; iter.Next(); k++ {
		s, err := iter.Value().String()
		if err != nil {
			errs = append(errs, formatCUEError(fmt.Sprintf("%s[%d]", field, k), err))
		}
		names = append(names, s)
	}
	return names, errs
}

func optionalString(v cue.Value, field string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", true, err
	}
	return s, true, nil
}
