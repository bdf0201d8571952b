// Package passes holds the contract checks run over a decoded design
// before any text is generated.
package passes

import (
	"fmt"

	"vlog95/internal/diag"
	"vlog95/internal/ir"
)

// Pass inspects a design. Passes report through their own diagnostic
// reporter and return an error when the design must not be emitted.
type Pass interface {
	Name() string
	Run(design *ir.Design) error
}

// Manager runs passes in registration order and stops at the first
// failing one.
type Manager struct {
	passes []Pass
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add appends p to the pipeline.
func (m *Manager) Add(p Pass) {
	if p != nil {
		m.passes = append(m.passes, p)
	}
}

// Names lists the registered passes.
func (m *Manager) Names() []string {
	names := make([]string, len(m.passes))
	for i, p := range m.passes {
		names[i] = p.Name()
	}
	return names
}

// Run executes every pass over design.
func (m *Manager) Run(design *ir.Design) error {
	if design == nil {
		return fmt.Errorf("passes require a non-nil design")
	}
	for _, p := range m.passes {
		if err := p.Run(design); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	return nil
}

// Default returns the checks run before every emission.
func Default(reporter *diag.Reporter) *Manager {
	m := NewManager()
	m.Add(NewStructure(reporter))
	m.Add(NewWidths(reporter))
	m.Add(NewDrivers(reporter))
	return m
}
