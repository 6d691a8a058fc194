package policy

import (
	"sort"
	"strings"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// Registry holds the known app profiles.
type Registry struct {
	profiles map[string]AppProfile
}

// NewRegistry creates a registry with all built-in profiles.
func NewRegistry() *Registry {
	return NewRegistryWithProfiles(
		NewSteamProfile(),
		NewEpicProfile(),
	)
}

// NewRegistryWithProfiles creates a registry with custom profiles (for testing).
func NewRegistryWithProfiles(profiles ...AppProfile) *Registry {
	r := &Registry{
		profiles: make(map[string]AppProfile),
	}
	for _, p := range profiles {
		r.Register(p)
	}
	return r
}

// Register adds a profile to the registry.
func (r *Registry) Register(p AppProfile) {
	r.profiles[strings.ToLower(p.ID())] = p
}

// Get returns a profile by token (case-insensitive).
func (r *Registry) Get(token string) (AppProfile, bool) {
	p, ok := r.profiles[strings.ToLower(token)]
	return p, ok
}

// List returns all profile IDs, sorted.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Patterns implements domain.PatternResolver.
// A token without a profile has no patterns; it only matches a process
// with exactly that name.
func (r *Registry) Patterns(token string) []string {
	if p, ok := r.Get(token); ok {
		return p.ProcessPatterns()
	}
	return nil
}

// DisplayName returns the profile name, or the token when unknown.
func (r *Registry) DisplayName(token string) string {
	if p, ok := r.Get(token); ok {
		return p.Name()
	}
	return token
}

// Ensure Registry implements domain.PatternResolver.
var _ domain.PatternResolver = (*Registry)(nil)
