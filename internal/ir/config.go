package ir

// WallConnections is the declarative wiring document, before resolution.
// Field names follow the authored JSON format ("walls", "wallName", ...).
type WallConnections struct {
	Walls []WallConfig `json:"walls" yaml:"walls"`
}

// WallConfig declares one wiring group.
type WallConfig struct {
	WallName string       `json:"wallName" yaml:"wallName"`
	Inputs   []string     `json:"inputs,omitempty" yaml:"inputs,omitempty"` // Declared inputs; nil means sources that name no slot are implicit inputs
	Output   string       `json:"output,omitempty" yaml:"output,omitempty"` // Slot feeding the goal bit; defaults to the last slot
	Slots    []SlotConfig `json:"slots" yaml:"slots"`
}

// SlotConfig names the two sources feeding a slot.
type SlotConfig struct {
	SlotName string   `json:"slotName" yaml:"slotName"`
	Inputs   []string `json:"inputs" yaml:"inputs"`
	Negated  bool     `json:"negated,omitempty" yaml:"negated,omitempty"`
}
