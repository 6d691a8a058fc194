package domain

import "time"

// Logical keys in the shared store. Both execution contexts use the same names.
const (
	KeyBlockedAppSet    = "blocked_app_set"
	KeyActiveWindow     = "active_unblock_window"
	KeyShoppingSession  = "active_shopping_session"
	KeyShowIntentPrompt = "prompt.should_show_intent_prompt"
	KeyReopenTargetApp  = "prompt.should_reopen_target_app"
	KeyNotificationAuth = "notify.authorization"
	KeyShieldApplied    = "shield.applied"
	LogPurchaseIntent   = "log.purchase_intent"
	LogUsageSession     = "log.usage_session"

	// KeyClosedWindowPrefix + window ID holds the one unblock_closed event
	// recorded for that window.
	KeyClosedWindowPrefix = "closed_window."
	// KeyLastTimestampSuffix is appended to a log name for the cell holding
	// the newest timestamp written to that log.
	KeyLastTimestampSuffix = ".last_timestamp"
)

// SharedStore is the durable key/value store shared by the foreground app
// and the monitoring context. Writes are last-writer-wins per key.
type SharedStore interface {
	// Get returns the value and whether the key exists.
	Get(key string) ([]byte, bool, error)

	// Set replaces the value atomically.
	Set(key string, value []byte) error

	// Remove deletes the key. Removing a missing key is not an error.
	Remove(key string) error

	// SetIfAbsent stores value only if key does not exist yet and reports
	// whether this call created it. Atomic across processes.
	SetIfAbsent(key string, value []byte) (bool, error)

	// Close releases resources (e.g., database connection).
	Close() error
}

// EventLog is the append-only half of the store.
// Each Append is atomic per record, so concurrent writers never lose records.
type EventLog interface {
	// Append adds one record to the named log.
	Append(log string, record []byte) error

	// Entries returns all records of the named log in append order.
	Entries(log string) ([][]byte, error)
}

// Store is what every driver provides.
type Store interface {
	SharedStore
	EventLog
}

// RestrictionCapability physically enforces the block.
// It cannot report granular errors; callers treat mismatches as warnings.
type RestrictionCapability interface {
	// Apply restricts exactly the given app identifiers.
	Apply(tokens []string) error

	// Clear removes all restriction.
	Clear() error

	// AppliedCount returns how many identifiers are currently restricted.
	AppliedCount() (int, error)
}

// NotificationCapability delivers local notifications.
type NotificationCapability interface {
	// RequestAuthorization is reserved for the foreground application.
	RequestAuthorization() error

	// Send schedules a notification after a delay greater than zero.
	Send(n Notification) error

	// AuthorizationStatus reports the current authorization.
	AuthorizationStatus() (AuthStatus, error)
}

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByName returns PIDs of processes whose name contains the pattern.
	FindByName(pattern string) ([]int, error)

	// FindByExactName returns PIDs of processes named exactly name (case-insensitive).
	FindByExactName(name string) ([]int, error)

	// Kill terminates a process by PID (SIGKILL).
	Kill(pid int) error

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool
}

// PatternResolver maps an app token to the process names that embody it.
// Patterns is empty for a token without a known profile; such tokens only
// match a process with exactly that name.
type PatternResolver interface {
	Patterns(token string) []string
}

// KeyProvider abstracts the source of encryption keys.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system time.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}
