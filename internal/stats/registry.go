// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package stats

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidStatistic is returned when a statistic definition is incomplete.
	ErrInvalidStatistic = errors.New("invalid statistic")

	// ErrDuplicateStatistic is returned when a key is registered twice.
	ErrDuplicateStatistic = errors.New("statistic already registered")

	// ErrUnknownDependency is returned when a statistic depends on a key that
	// has not been registered yet.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrUnknownStatistic is returned by Select for keys or names that match nothing.
	ErrUnknownStatistic = errors.New("unknown statistic")
)

// Registry holds statistic definitions in registration order. Dependencies
// must be registered before their dependents, so registration order is a valid
// processing order.
type Registry struct {
	mu    sync.RWMutex
	stats []*Statistic
	byKey map[string]*Statistic
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]*Statistic)}
}

// Register validates and adds a statistic.
func (r *Registry) Register(s *Statistic) error {
	if err := validateStatistic(s); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := s.Key()
	if _, exists := r.byKey[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStatistic, key)
	}
	for _, dep := range s.DependsOn {
		if _, ok := r.byKey[dep]; !ok {
			return fmt.Errorf("%w: %s depends on %s", ErrUnknownDependency, key, dep)
		}
	}

	r.stats = append(r.stats, s)
	r.byKey[key] = s
	return nil
}

func validateStatistic(s *Statistic) error {
	switch {
	case s == nil:
		return fmt.Errorf("%w: nil", ErrInvalidStatistic)
	case s.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidStatistic)
	case !s.Level.Valid():
		return fmt.Errorf("%w: %s has unsupported level %q", ErrInvalidStatistic, s.Name, s.Level)
	case !s.Granularity.Valid():
		return fmt.Errorf("%w: %s has unsupported granularity %q", ErrInvalidStatistic, s.Name, s.Granularity)
	case s.Value == nil:
		return fmt.Errorf("%w: %s has no value function", ErrInvalidStatistic, s.Name)
	case s.RollsUpFrom != "" && !s.RollsUpFrom.Valid():
		return fmt.Errorf("%w: %s rolls up from unsupported level %q", ErrInvalidStatistic, s.Name, s.RollsUpFrom)
	}
	return nil
}

// Get returns the statistic registered under key.
func (r *Registry) Get(key string) (*Statistic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byKey[key]
	return s, ok
}

// All returns every statistic in registration order.
func (r *Registry) All() []*Statistic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Statistic, len(r.stats))
	copy(out, r.stats)
	return out
}

// Len returns the number of registered statistics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stats)
}

// Select returns the statistics matching selectors plus everything they
// transitively depend on, in registration order. A selector is either a full
// key or a bare statistic name, which matches every level and granularity of
// that name. An empty selector list selects everything.
func (r *Registry) Select(selectors ...string) ([]*Statistic, error) {
	if len(selectors) == 0 {
		return r.All(), nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]bool)
	var visit func(key string)
	visit = func(key string) {
		if wanted[key] {
			return
		}
		wanted[key] = true
		for _, dep := range r.byKey[key].DependsOn {
			visit(dep)
		}
	}

	for _, sel := range selectors {
		matched := false
		for _, s := range r.stats {
			if s.Key() == sel || s.Name == sel {
				visit(s.Key())
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStatistic, sel)
		}
	}

	out := make([]*Statistic, 0, len(wanted))
	for _, s := range r.stats {
		if wanted[s.Key()] {
			out = append(out, s)
		}
	}
	return out, nil
}
