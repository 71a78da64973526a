package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gatehouse/internal/ir"
)

// Room kinds a scenario can build.
const (
	RoomLogic      = "logic"
	RoomComparison = "comparison"
)

// Scenario defines one puzzle run.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Room is the room kind: logic or comparison.
	Room string `yaml:"room"`

	// Wiring is the path of a CUE or JSON wiring document (logic rooms).
	// Relative paths are resolved from the scenario file's directory.
	Wiring string `yaml:"wiring,omitempty"`

	// Walls is an inline wiring document, used when Wiring is empty.
	Walls []ir.WallConfig `yaml:"walls,omitempty"`

	// Comparison sets the grid shape (comparison rooms).
	Comparison *ComparisonShape `yaml:"comparison,omitempty"`

	// Seed drives every random draw the setup does not override.
	Seed int64 `yaml:"seed"`

	// Session is the fixed session id stamped on every event.
	Session string `yaml:"session,omitempty"`

	// CompletedRooms are marked completed in the store before entering.
	CompletedRooms []string `yaml:"completed_rooms,omitempty"`

	Setup      Setup       `yaml:"setup,omitempty"`
	Steps      []Step      `yaml:"steps"`
	Expect     *Expect     `yaml:"expect,omitempty"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ComparisonShape sizes a comparison room.
type ComparisonShape struct {
	Groups          int    `yaml:"groups"`
	NumbersPerGroup int    `yaml:"numbers_per_group"`
	RetryDelay      string `yaml:"retry_delay,omitempty"` // Go duration; default 2s
}

// Setup fixes values Enter would otherwise generate.
type Setup struct {
	Inputs  map[string]map[string]bool `yaml:"inputs,omitempty"` // group -> input -> value
	Target  []bool                     `yaml:"target,omitempty"` // indexed by group
	Numbers []NumberOverride           `yaml:"numbers,omitempty"`
}

// NumberOverride replaces one generated number.
type NumberOverride struct {
	Group  int `yaml:"group"`
	Number int `yaml:"number"`
	Value  int `yaml:"value"`
}

// Step is one placement. Exactly one action field is set.
type Step struct {
	PlaceGate   *GateStep   `yaml:"place_gate,omitempty"`
	RemoveGate  *SlotStep   `yaml:"remove_gate,omitempty"`
	AttachInput *InputStep  `yaml:"attach_input,omitempty"`
	PlaceSign   *SignStep   `yaml:"place_sign,omitempty"`
	Tick        string      `yaml:"tick,omitempty"` // Go duration
	Expect      *StepExpect `yaml:"expect,omitempty"`
}

// GateStep places a gate.
type GateStep struct {
	Group  string `yaml:"group"`
	Slot   string `yaml:"slot"`
	Op     string `yaml:"op"`
	Negate bool   `yaml:"negate,omitempty"`
}

// SlotStep names a slot.
type SlotStep struct {
	Group string `yaml:"group"`
	Slot  string `yaml:"slot"`
}

// InputStep attaches an extra input leaf.
type InputStep struct {
	Group string `yaml:"group"`
	Input string `yaml:"input"`
	Value bool   `yaml:"value"`
}

// SignStep places a comparison sign.
type SignStep struct {
	Group int    `yaml:"group"`
	Pair  int    `yaml:"pair"`
	Sign  string `yaml:"sign"`
}

// StepExpect checks one step's outcome. Unset fields are not checked.
type StepExpect struct {
	// Error is the expected error code (e.g. INVALID_PLACEMENT), or
	// ROOM_COMPLETED for a placement in a solved room.
	Error     string `yaml:"error,omitempty"`
	Correct   *bool  `yaml:"correct,omitempty"`
	Retry     *bool  `yaml:"retry,omitempty"`
	Satisfied *bool  `yaml:"satisfied,omitempty"`
	Completed *bool  `yaml:"completed,omitempty"`
}

// Expect checks the room after the last step.
type Expect struct {
	Completed *bool  `yaml:"completed,omitempty"` // checked against the room and the store
	Goal      string `yaml:"goal,omitempty"`      // logic rooms: live register string
}

// Assertion validates the trace, the room or the load result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_contains": an event of Kind carries every entry of Fields
	// - "event_count": exactly Count events of Kind
	// - "event_order": first events of Kinds appear in order
	// - "pair_state": pair (Group, Pair) is State
	// - "load_error": a loader error carries Code
	Type   string         `yaml:"type"`
	Kind   string         `yaml:"kind,omitempty"`
	Fields map[string]any `yaml:"fields,omitempty"`
	Count  int            `yaml:"count,omitempty"`
	Kinds  []string       `yaml:"kinds,omitempty"`
	Group  int            `yaml:"group,omitempty"`
	Pair   int            `yaml:"pair,omitempty"`
	State  string         `yaml:"state,omitempty"` // unset | wrong | correct
	Code   string         `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertEventContains = "event_contains"
	AssertEventCount    = "event_count"
	AssertEventOrder    = "event_order"
	AssertPairState     = "pair_state"
	AssertLoadError     = "load_error"
)

// ErrorRoomCompleted is the StepExpect.Error value for room.ErrRoomCompleted.
const ErrorRoomCompleted = "ROOM_COMPLETED"

// LoadScenario reads and parses a scenario YAML file. A relative wiring
// path is resolved from the file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving a relative wiring path
// against baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if s.Wiring != "" && !filepath.IsAbs(s.Wiring) && baseDir != "" {
		s.Wiring = filepath.Join(baseDir, s.Wiring)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	switch s.Room {
	case RoomLogic:
		if s.Wiring == "" && len(s.Walls) == 0 {
			return fmt.Errorf("logic room needs wiring or walls")
		}
		if s.Wiring != "" {
			if _, err := os.Stat(s.Wiring); os.IsNotExist(err) {
				return fmt.Errorf("wiring file not found: %s", s.Wiring)
			}
		}
	case RoomComparison:
		if s.Comparison == nil {
			return fmt.Errorf("comparison room needs a comparison shape")
		}
		if s.Comparison.RetryDelay != "" {
			if _, err := time.ParseDuration(s.Comparison.RetryDelay); err != nil {
				return fmt.Errorf("comparison.retry_delay: %w", err)
			}
		}
	default:
		return fmt.Errorf("room must be %q or %q, got %q", RoomLogic, RoomComparison, s.Room)
	}

	for i, n := range s.Setup.Numbers {
		if n.Value < 0 || n.Value > 255 {
			return fmt.Errorf("setup.numbers[%d]: value %d out of byte range", i, n.Value)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	set := 0
	if st.PlaceGate != nil {
		set++
		if _, err := ir.ParseGateOp(st.PlaceGate.Op); err != nil {
			return fmt.Errorf("steps[%d].place_gate: %w", index, err)
		}
	}
	if st.RemoveGate != nil {
		set++
	}
	if st.AttachInput != nil {
		set++
	}
	if st.PlaceSign != nil {
		set++
		if _, err := ir.ParseSignKind(st.PlaceSign.Sign); err != nil {
			return fmt.Errorf("steps[%d].place_sign: %w", index, err)
		}
	}
	if st.Tick != "" {
		set++
		if _, err := time.ParseDuration(st.Tick); err != nil {
			return fmt.Errorf("steps[%d].tick: %w", index, err)
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one action is required, got %d", index, set)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_contains", index)
		}
	case AssertEventCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertEventOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for event_order", index)
		}
	case AssertPairState:
		switch a.State {
		case "unset", "wrong", "correct":
		default:
			return fmt.Errorf("assertions[%d]: state must be unset, wrong or correct for pair_state", index)
		}
	case AssertLoadError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for load_error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
