package engine

import "github.com/rs/zerolog"

// Config controls accumulator strategy and diagnostic output for an Engine.
type Config struct {
	SortSumGradient    bool          // Use sorted-by-op-id accumulation instead of eager in-place sums.
	RetainGraphDefault bool          // Default for Init when callers don't specify retainGraph explicitly.
	Logger             zerolog.Logger // Trace-level logger; zerolog.Nop() by default.
}

// DefaultConfig returns the engine's default configuration: eager accumulation,
// no graph retention, and logging disabled.
func DefaultConfig() Config {
	return Config{
		SortSumGradient:    false,
		RetainGraphDefault: false,
		Logger:             zerolog.Nop(),
	}
}
