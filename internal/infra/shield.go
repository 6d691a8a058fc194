package infra

import (
	"encoding/json"
	"sort"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// ShieldSweep captures what happened during a single sweep.
type ShieldSweep struct {
	KilledPIDs map[string][]int // token -> killed PIDs
	Errors     []error
}

// Killed returns the total number of terminated processes.
func (r ShieldSweep) Killed() int {
	n := 0
	for _, pids := range r.KilledPIDs {
		n += len(pids)
	}
	return n
}

// ProcessShield implements domain.RestrictionCapability on desktop.
// The applied set lives in the shared store so any process can observe it;
// enforcement terminates running processes of restricted apps.
type ProcessShield struct {
	store    domain.SharedStore
	pm       domain.ProcessManager
	resolver domain.PatternResolver
	logger   *zap.Logger
}

// NewProcessShield creates a shield over the given store.
func NewProcessShield(store domain.SharedStore, pm domain.ProcessManager, resolver domain.PatternResolver, logger *zap.Logger) *ProcessShield {
	return &ProcessShield{
		store:    store,
		pm:       pm,
		resolver: resolver,
		logger:   logger,
	}
}

// Apply restricts exactly the given tokens and sweeps once immediately.
func (s *ProcessShield) Apply(tokens []string) error {
	applied := uniqueSorted(tokens)
	data, err := json.Marshal(applied)
	if err != nil {
		return err
	}
	if err := s.store.Set(domain.KeyShieldApplied, data); err != nil {
		return err
	}
	s.Sweep()
	return nil
}

// Clear removes all restriction.
func (s *ProcessShield) Clear() error {
	return s.store.Remove(domain.KeyShieldApplied)
}

// AppliedCount returns how many tokens are currently restricted.
func (s *ProcessShield) AppliedCount() (int, error) {
	tokens, err := s.AppliedTokens()
	if err != nil {
		return 0, err
	}
	return len(tokens), nil
}

// AppliedTokens returns the restricted tokens. A malformed entry reads as none.
func (s *ProcessShield) AppliedTokens() ([]string, error) {
	data, ok, err := s.store.Get(domain.KeyShieldApplied)
	if err != nil || !ok {
		return nil, err
	}
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		s.logger.Warn("malformed shield entry, treating as empty", zap.Error(err))
		return nil, nil
	}
	return tokens, nil
}

// Sweep terminates running processes of every applied token.
func (s *ProcessShield) Sweep() ShieldSweep {
	result := ShieldSweep{KilledPIDs: make(map[string][]int)}

	tokens, err := s.AppliedTokens()
	if err != nil {
		s.logger.Warn("failed to read applied tokens", zap.Error(err))
		result.Errors = append(result.Errors, err)
		return result
	}

	for _, token := range tokens {
		pids, errs := s.lookup(token)
		result.Errors = append(result.Errors, errs...)
		for _, pid := range pids {
			if err := s.pm.Kill(pid); err != nil {
				s.logger.Warn("failed to kill process",
					zap.Int("pid", pid),
					zap.Error(err))
				result.Errors = append(result.Errors, err)
				continue
			}
			s.logger.Info("terminated restricted app",
				zap.String("token", token),
				zap.Int("pid", pid))
			result.KilledPIDs[token] = append(result.KilledPIDs[token], pid)
		}
	}

	return result
}

// RunningTokens returns which of the given tokens have a live process.
func (s *ProcessShield) RunningTokens(tokens []string) []string {
	var running []string
	for _, token := range tokens {
		if pids, _ := s.lookup(token); len(pids) > 0 {
			running = append(running, token)
		}
	}
	return running
}

// lookup returns the live PIDs of token. Profile patterns match as
// substrings; a token without a profile must equal the process name, so a
// short token like "sh" never reaches bash or sshd.
func (s *ProcessShield) lookup(token string) ([]int, []error) {
	patterns := s.resolver.Patterns(token)
	if len(patterns) == 0 {
		pids, err := s.pm.FindByExactName(token)
		if err != nil {
			s.logger.Warn("failed to find processes",
				zap.String("name", token),
				zap.Error(err))
			return nil, []error{err}
		}
		return pids, nil
	}

	var pids []int
	var errs []error
	seen := make(map[int]bool)
	for _, pattern := range patterns {
		found, err := s.pm.FindByName(pattern)
		if err != nil {
			s.logger.Warn("failed to find processes",
				zap.String("pattern", pattern),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		for _, pid := range found {
			if !seen[pid] {
				seen[pid] = true
				pids = append(pids, pid)
			}
		}
	}
	return pids, errs
}

func uniqueSorted(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Ensure ProcessShield implements domain.RestrictionCapability.
var _ domain.RestrictionCapability = (*ProcessShield)(nil)
