package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/gatehouse/internal/bitmatrix"
	"github.com/roach88/gatehouse/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Kind, formatFields(event.Fields))
		}
	}
	return buf.String()
}

// AssertionContext provides what assertions inspect beyond the trace.
type AssertionContext struct {
	Puzzle     *bitmatrix.Puzzle // comparison rooms; nil when inert
	LoadErrors []error
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	if actx == nil {
		actx = &AssertionContext{}
	}
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEventContains:
			err = assertEventContains(result.Trace, assertion)
		case AssertEventCount:
			err = assertEventCount(result.Trace, assertion)
		case AssertEventOrder:
			err = assertEventOrder(result.Trace, assertion)
		case AssertPairState:
			err = assertPairState(actx.Puzzle, assertion)
		case AssertLoadError:
			err = assertLoadError(actx.LoadErrors, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// assertEventContains checks that an event of the kind carries every
// expected field (subset match).
func assertEventContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Kind == assertion.Kind && matchFields(event.Fields, assertion.Fields) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("%s with %s", assertion.Kind, formatFields(assertion.Fields)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertEventCount checks that the kind appears exactly Count times.
func assertEventCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Kind == assertion.Kind {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Kind),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertEventOrder checks that the first event of each kind appears in the
// listed order. Events in between are allowed.
func assertEventOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if _, seen := positions[event.Kind]; !seen {
			positions[event.Kind] = i + 1 // 1-indexed for readability
		}
	}

	for _, kind := range assertion.Kinds {
		if positions[kind] == 0 {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("all kinds present: %v", assertion.Kinds),
				Actual:   fmt.Sprintf("missing kind: %s", kind),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Kinds); i++ {
		prev := assertion.Kinds[i-1]
		curr := assertion.Kinds[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("kinds in order: %v", assertion.Kinds),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertPairState checks a bit-matrix pair's sign state.
func assertPairState(p *bitmatrix.Puzzle, assertion Assertion) error {
	if p == nil {
		return &AssertionError{
			Type:     AssertPairState,
			Expected: fmt.Sprintf("pair %d/%d %s", assertion.Group, assertion.Pair, assertion.State),
			Actual:   "no active comparison puzzle",
		}
	}
	st, err := p.State(assertion.Group, assertion.Pair)
	if err != nil {
		return fmt.Errorf("pair_state: %w", err)
	}
	if got := pairState(st); got != assertion.State {
		return &AssertionError{
			Type:     AssertPairState,
			Expected: fmt.Sprintf("pair %d/%d %s", assertion.Group, assertion.Pair, assertion.State),
			Actual:   got,
		}
	}
	return nil
}

func pairState(st bitmatrix.SignState) string {
	switch {
	case !st.Placed:
		return "unset"
	case st.Correct:
		return "correct"
	default:
		return "wrong"
	}
}

// assertLoadError checks that the wiring loader reported the code.
func assertLoadError(errs []error, assertion Assertion) error {
	var codes []string
	for _, err := range errs {
		code, ok := engine.CodeOf(err)
		if !ok {
			continue
		}
		if string(code) == assertion.Code {
			return nil
		}
		codes = append(codes, string(code))
	}
	return &AssertionError{
		Type:     AssertLoadError,
		Expected: fmt.Sprintf("load error %s", assertion.Code),
		Actual:   fmt.Sprintf("codes %v", codes),
	}
}

// matchFields checks that actual carries every expected field. Extra keys
// in actual are ignored.
func matchFields(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, exists := actual[key]
		if !exists || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares a payload value with a YAML-decoded one. Integers
// compare by value whatever their Go type.
func valuesEqual(actual, expected any) bool {
	if a, ok := asInt(actual); ok {
		e, ok := asInt(expected)
		return ok && a == e
	}
	return reflect.DeepEqual(actual, expected)
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

// formatFields renders fields with sorted keys.
func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
