// Package transaction tracks the native resources acquired while one
// PackageKit transaction runs and releases them when it ends.
package transaction

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ReleaseFunc frees one native resource
type ReleaseFunc func() error

type resource struct {
	name string
	fn   ReleaseFunc
}

// Manager manages a stack of native resources
type Manager struct {
	resources []resource
	mu        sync.Mutex
	logger    *zerolog.Logger
}

// NewManager creates a new transaction manager
func NewManager(logger *zerolog.Logger) *Manager {
	return &Manager{
		resources: make([]resource, 0),
		logger:    logger,
	}
}

// Add pushes a resource onto the stack
func (m *Manager) Add(name string, fn ReleaseFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources = append(m.resources, resource{name, fn})
}

// Len returns the number of resources still held
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

// Release frees all resources in reverse order of acquisition (LIFO).
// Every release runs even if an earlier one fails.
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.resources) == 0 {
		return nil
	}

	var errs []error
	for i := len(m.resources) - 1; i >= 0; i-- {
		res := m.resources[i]
		if m.logger != nil {
			m.logger.Trace().Str("resource", res.name).Msg("releasing")
		}

		if err := res.fn(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", res.name, err))
			if m.logger != nil {
				m.logger.Error().Err(err).Str("resource", res.name).Msg("release failed")
			}
		}
	}

	m.resources = nil

	return errors.Join(errs...)
}
