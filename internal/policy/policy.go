// Package policy maps opaque app tokens to the processes that embody them.
// Each known app has a profile (Strategy pattern); unknown tokens match by name.
package policy

import "time"

// DefaultSweepInterval is how often the monitor host sweeps for restricted processes.
const DefaultSweepInterval = 5 * time.Second

// AppProfile defines the strategy interface for recognizing an application.
type AppProfile interface {
	// ID returns the token the profile answers to (e.g., "steam").
	ID() string

	// Name returns human-readable name for display.
	Name() string

	// ProcessPatterns returns process names that belong to the app.
	// Patterns are matched case-insensitively as substrings.
	ProcessPatterns() []string
}
