// Package tui provides the interactive terminal chat for manualqa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI talks to.
type Ports struct {
	// Answer answers questions. Required.
	Answer driving.AnswerService

	// Collection lists the manuals offered by the scope selector.
	Collection driving.CollectionService

	// Settings manages application settings.
	Settings driving.SettingsService

	// ReloadPrompts re-reads the answer prompt files.
	ReloadPrompts func()

	// TopK is the number of context chunks per question. Zero means the default.
	TopK int
}

// NewPorts creates a Ports aggregate with the services every chat needs.
func NewPorts(answer driving.AnswerService, collection driving.CollectionService) *Ports {
	return &Ports{
		Answer:     answer,
		Collection: collection,
	}
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.TopK < 0 {
		return ErrInvalidPorts
	}
	return nil
}
