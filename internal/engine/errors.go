package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes puzzle errors.
type ErrorCode string

const (
	// ErrCodeMissingReference indicates a wiring name that resolves to nothing.
	ErrCodeMissingReference ErrorCode = "MISSING_REFERENCE"

	// ErrCodeArityMismatch indicates a slot declared with other than two inputs.
	ErrCodeArityMismatch ErrorCode = "ARITY_MISMATCH"

	// ErrCodeUnknownGroup indicates a group name or index that does not exist.
	ErrCodeUnknownGroup ErrorCode = "UNKNOWN_GROUP"

	// ErrCodeInvalidPlacement indicates a slot or pair that does not exist.
	ErrCodeInvalidPlacement ErrorCode = "INVALID_PLACEMENT"

	// ErrCodeAlreadyLocked indicates a sign placed on a pair already solved.
	ErrCodeAlreadyLocked ErrorCode = "ALREADY_LOCKED"

	// ErrCodeCycleDetected indicates slot wiring that references itself.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"

	// ErrCodeDuplicateInput indicates a second attach of the same input leaf.
	ErrCodeDuplicateInput ErrorCode = "DUPLICATE_INPUT"
)

// PuzzleError is a recoverable, local puzzle failure.
//
// The offending element stays inert (an unresolved input reads false, a
// rejected placement changes nothing). No PuzzleError is fatal to a room.
type PuzzleError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Group names the wiring group or bit-matrix group, if any.
	Group string

	// Element names the slot, input or pair, if any.
	Element string

	// Source is the wiring name that failed to resolve (missing references)
	// or the rendered path (cycles).
	Source string
}

// Error implements the error interface.
func (e *PuzzleError) Error() string {
	var ctx []string
	if e.Group != "" {
		ctx = append(ctx, "group="+e.Group)
	}
	if e.Element != "" {
		ctx = append(ctx, "element="+e.Element)
	}
	if len(ctx) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(ctx, ", "))
}

// CodeOf returns the code of the first PuzzleError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var pe *PuzzleError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}

func hasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsMissingReference reports whether err is a missing reference error.
func IsMissingReference(err error) bool { return hasCode(err, ErrCodeMissingReference) }

// IsArityMismatch reports whether err is an arity mismatch error.
func IsArityMismatch(err error) bool { return hasCode(err, ErrCodeArityMismatch) }

// IsUnknownGroup reports whether err is an unknown group error.
func IsUnknownGroup(err error) bool { return hasCode(err, ErrCodeUnknownGroup) }

// IsInvalidPlacement reports whether err is an invalid placement error.
func IsInvalidPlacement(err error) bool { return hasCode(err, ErrCodeInvalidPlacement) }

// IsAlreadyLocked reports whether err is an already locked error.
func IsAlreadyLocked(err error) bool { return hasCode(err, ErrCodeAlreadyLocked) }

// IsCycle reports whether err is a cycle error.
func IsCycle(err error) bool { return hasCode(err, ErrCodeCycleDetected) }

// IsDuplicateInput reports whether err is a duplicate input error.
func IsDuplicateInput(err error) bool { return hasCode(err, ErrCodeDuplicateInput) }

// NewMissingReferenceError reports that source, used by slot in group, names
// neither a slot nor a declared input of that group.
func NewMissingReferenceError(group, slot, source string) *PuzzleError {
	return &PuzzleError{
		Code:    ErrCodeMissingReference,
		Message: fmt.Sprintf("source %q does not name a slot or input of this group", source),
		Group:   group,
		Element: slot,
		Source:  source,
	}
}

// NewArityMismatchError reports a slot declared with got inputs.
func NewArityMismatchError(group, slot string, got int) *PuzzleError {
	return &PuzzleError{
		Code:    ErrCodeArityMismatch,
		Message: fmt.Sprintf("slot declares %d inputs, want 2", got),
		Group:   group,
		Element: slot,
	}
}

// NewUnknownGroupError reports a group that does not exist.
func NewUnknownGroupError(group string) *PuzzleError {
	return &PuzzleError{
		Code:    ErrCodeUnknownGroup,
		Message: "no such group",
		Group:   group,
	}
}

// NewInvalidPlacementError reports a placement target that does not exist.
func NewInvalidPlacementError(group, element, reason string) *PuzzleError {
	return &PuzzleError{
		Code:    ErrCodeInvalidPlacement,
		Message: reason,
		Group:   group,
		Element: element,
	}
}

// NewAlreadyLockedError reports a placement on a solved pair.
func NewAlreadyLockedError(group, pair string) *PuzzleError {
	return &PuzzleError{
		Code:    ErrCodeAlreadyLocked,
		Message: "pair is already solved",
		Group:   group,
		Element: pair,
	}
}

// NewCycleError reports a reference cycle; path lists the slots in order
// with the first slot repeated at the end.
func NewCycleError(group string, path []string) *PuzzleError {
	rendered := strings.Join(path, " -> ")
	var first string
	if len(path) > 0 {
		first = path[0]
	}
	return &PuzzleError{
		Code:    ErrCodeCycleDetected,
		Message: "slot wiring forms a cycle: " + rendered,
		Group:   group,
		Element: first,
		Source:  rendered,
	}
}

// NewDuplicateInputError reports a second attach of the same input.
func NewDuplicateInputError(group, input string) *PuzzleError {
	return &PuzzleError{
		Code:    ErrCodeDuplicateInput,
		Message: "input already attached",
		Group:   group,
		Element: input,
	}
}
