// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Validation and state errors.
var (
	ErrNoBlockedApps      = errors.New("no blocked apps configured")
	ErrInvalidDuration    = errors.New("duration must be positive")
	ErrDuplicateApp       = errors.New("app is already blocked")
	ErrEmptyToken         = errors.New("app token cannot be empty")
	ErrAppIndexOutOfRange = errors.New("app index out of range")
	ErrInvalidPurchase    = errors.New("purchase type must be planned or impulse")
)

// DefaultUnblockMinutes is the product's fixed window length.
const DefaultUnblockMinutes = 15

// DefaultShoppingSessionThreshold is how long a shopping session must last
// before it is worth asking the user to log a purchase.
const DefaultShoppingSessionThreshold = 120 * time.Second

// BlockedApp is one designated application.
type BlockedApp struct {
	Token string `json:"token"` // Opaque identifier, unique within the set
	Name  string `json:"name"`  // User-editable display name
	Index int    `json:"index"` // Stable position, contiguous from 0
}

// BlockedAppSet is the ordered collection of designated apps.
// Persisted as a single value so tokens and names can never disagree.
type BlockedAppSet struct {
	Apps []BlockedApp `json:"apps"`
}

// DefaultAppName returns the name an app gets at the given index.
func DefaultAppName(index int) string {
	return fmt.Sprintf("App %d", index+1)
}

// Len returns the number of designated apps.
func (s BlockedAppSet) Len() int {
	return len(s.Apps)
}

// Tokens returns the app identifiers in index order.
func (s BlockedAppSet) Tokens() []string {
	tokens := make([]string, len(s.Apps))
	for i, a := range s.Apps {
		tokens[i] = a.Token
	}
	return tokens
}

// Contains reports whether the token is already designated.
func (s BlockedAppSet) Contains(token string) bool {
	for _, a := range s.Apps {
		if a.Token == token {
			return true
		}
	}
	return false
}

// Get returns the app at index.
func (s BlockedAppSet) Get(index int) (BlockedApp, error) {
	if index < 0 || index >= len(s.Apps) {
		return BlockedApp{}, fmt.Errorf("%w: %d", ErrAppIndexOutOfRange, index)
	}
	return s.Apps[index], nil
}

// NameAt returns the display name for index, or the default name when the
// index is unknown (e.g. the app was removed after the event was recorded).
func (s BlockedAppSet) NameAt(index int) string {
	if app, err := s.Get(index); err == nil {
		return app.Name
	}
	return DefaultAppName(index)
}

// Add appends a new app with the default name.
func (s BlockedAppSet) Add(token string) (BlockedAppSet, error) {
	if token == "" {
		return s, ErrEmptyToken
	}
	if s.Contains(token) {
		return s, fmt.Errorf("%w: %s", ErrDuplicateApp, token)
	}
	apps := append(s.clone(), BlockedApp{
		Token: token,
		Name:  DefaultAppName(len(s.Apps)),
		Index: len(s.Apps),
	})
	return BlockedAppSet{Apps: apps}, nil
}

// Remove drops the app at index and renumbers the rest contiguously.
// Apps still carrying their default name are renamed to match the new index.
func (s BlockedAppSet) Remove(index int) (BlockedAppSet, error) {
	if _, err := s.Get(index); err != nil {
		return s, err
	}
	apps := make([]BlockedApp, 0, len(s.Apps)-1)
	for _, a := range s.Apps {
		if a.Index == index {
			continue
		}
		newIndex := len(apps)
		if a.Name == DefaultAppName(a.Index) {
			a.Name = DefaultAppName(newIndex)
		}
		a.Index = newIndex
		apps = append(apps, a)
	}
	return BlockedAppSet{Apps: apps}, nil
}

// Rename sets a display name. An empty name restores the default.
func (s BlockedAppSet) Rename(index int, name string) (BlockedAppSet, error) {
	if _, err := s.Get(index); err != nil {
		return s, err
	}
	apps := s.clone()
	if name == "" {
		name = DefaultAppName(index)
	}
	apps[index].Name = name
	return BlockedAppSet{Apps: apps}, nil
}

// Normalize repairs a set read from storage: drops empty and duplicate tokens
// and reassigns indices contiguously.
func (s BlockedAppSet) Normalize() BlockedAppSet {
	seen := make(map[string]bool, len(s.Apps))
	apps := make([]BlockedApp, 0, len(s.Apps))
	for _, a := range s.Apps {
		if a.Token == "" || seen[a.Token] {
			continue
		}
		seen[a.Token] = true
		a.Index = len(apps)
		if a.Name == "" {
			a.Name = DefaultAppName(a.Index)
		}
		apps = append(apps, a)
	}
	return BlockedAppSet{Apps: apps}
}

func (s BlockedAppSet) clone() []BlockedApp {
	apps := make([]BlockedApp, len(s.Apps))
	copy(apps, s.Apps)
	return apps
}

// PurchaseType classifies the user's intent when asking for an unblock.
type PurchaseType string

const (
	PurchasePlanned PurchaseType = "planned"
	PurchaseImpulse PurchaseType = "impulse"
)

// Valid reports whether the type is known. Empty is allowed (no answer).
func (p PurchaseType) Valid() bool {
	return p == "" || p == PurchasePlanned || p == PurchaseImpulse
}

// WindowMetadata is the optional intent context captured with a grant.
type WindowMetadata struct {
	PurchaseType PurchaseType `json:"purchase_type,omitempty"`
	Category     string       `json:"category,omitempty"`
	Mood         string       `json:"mood,omitempty"`
	MoodNotes    string       `json:"mood_notes,omitempty"`
	AppIndex     *int         `json:"app_index,omitempty"`
}

// UnblockWindow is one temporary-unblock grant.
// Always written to the store as a single value.
type UnblockWindow struct {
	ID              string         `json:"id"`
	StartTime       time.Time      `json:"start_time"`
	DurationMinutes int            `json:"duration_minutes"`
	ExpiresAt       time.Time      `json:"expires_at"`
	Metadata        WindowMetadata `json:"metadata"`
	UsageObserved   bool           `json:"usage_observed,omitempty"`
}

// IsExpired returns true once now has reached ExpiresAt.
func (w *UnblockWindow) IsExpired(now time.Time) bool {
	return !now.Before(w.ExpiresAt)
}

// Remaining returns the time left in the window, never negative.
func (w *UnblockWindow) Remaining(now time.Time) time.Duration {
	remaining := w.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// OpenDuration is how long the window stayed open, capped at its expiry.
func (w *UnblockWindow) OpenDuration(now time.Time) time.Duration {
	end := now
	if w.ExpiresAt.Before(end) {
		end = w.ExpiresAt
	}
	d := end.Sub(w.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// SchedulerState is derived from the stored window, never stored itself.
type SchedulerState string

const (
	StateBlocked        SchedulerState = "blocked"
	StateUnblockGranted SchedulerState = "unblock_granted"
	StateExpired        SchedulerState = "expired"
)

// DeriveState computes the scheduler state for a (possibly nil) window.
func DeriveState(w *UnblockWindow, now time.Time) SchedulerState {
	switch {
	case w == nil:
		return StateBlocked
	case w.IsExpired(now):
		return StateExpired
	default:
		return StateUnblockGranted
	}
}

// ShoppingSession bridges an app opening to the purchase-log prompt.
type ShoppingSession struct {
	StartTime time.Time `json:"start_time"`
}

// PromptFlags are the durable hand-off from the monitoring context to the
// foreground. Each flag is its own store cell.
type PromptFlags struct {
	ShowIntentPrompt bool
	ReopenTargetApp  bool
}

// AuthStatus is the local-notification authorization state.
type AuthStatus string

const (
	AuthNotDetermined AuthStatus = "not_determined"
	AuthDenied        AuthStatus = "denied"
	AuthAuthorized    AuthStatus = "authorized"
)

// NotificationPriority maps to the platform's interruption level.
type NotificationPriority string

const (
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

// Notification is a best-effort local notification request.
type Notification struct {
	Title    string
	Body     string
	Payload  map[string]string
	MinDelay time.Duration
	Priority NotificationPriority
}
