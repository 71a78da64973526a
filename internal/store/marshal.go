package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
)

// payloadRecord mirrors engine.Event.Payload for decoding. Absent fields
// decode to the zero value, which is what the event held.
type payloadRecord struct {
	Kind    string `json:"kind"`
	Group   int    `json:"group"`
	Node    string `json:"node"`
	Number  int    `json:"number"`
	Bit     int    `json:"bit"`
	Pair    int    `json:"pair"`
	Value   bool   `json:"value"`
	Correct bool   `json:"correct"`
}

// marshalPayload serializes an event payload to canonical JSON TEXT.
func marshalPayload(e engine.Event) (string, error) {
	data, err := ir.MarshalCanonical(e.Payload())
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// unmarshalPayload fills the kind-specific fields of e from stored JSON.
func unmarshalPayload(data string, e *engine.Event) error {
	var rec payloadRecord
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	e.Kind = engine.EventKind(rec.Kind)
	e.Group = rec.Group
	e.Node = rec.Node
	e.Number = rec.Number
	e.Bit = rec.Bit
	e.Pair = rec.Pair
	e.Value = rec.Value
	e.Correct = rec.Correct
	return nil
}
