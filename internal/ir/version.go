package ir

// Version constants for IR schema and engine.
const (
	// IRVersion is the wiring table schema version.
	IRVersion = "1"

	// EngineVersion is the gatehouse engine version.
	EngineVersion = "0.1.0"
)
