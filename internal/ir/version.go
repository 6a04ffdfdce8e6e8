package ir

// Version constants for the scenario format and engine.
const (
	// FormatVersion is the scenario document schema version.
	FormatVersion = 1

	// EngineVersion is the novel engine version.
	EngineVersion = "0.1.0"
)
