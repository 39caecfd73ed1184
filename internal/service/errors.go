package service

import (
	"errors"
	"fmt"

	"panjar/internal/repository"
	"panjar/internal/workflow"

	"gorm.io/gorm"
)

// Error kinds surfaced to the handler layer. Wrap with %w and test with errors.Is.
var (
	ErrUnauthorizedTransition = workflow.ErrUnauthorizedTransition
	ErrForbidden              = errors.New("insufficient permissions for this action")
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrConcurrentUpdate       = errors.New("item was modified by another user, reload and try again")
)

// lookupErr turns a repository lookup failure into ErrNotFound when the row is missing.
func lookupErr(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func staleToConflict(err error) error {
	if errors.Is(err, repository.ErrStaleVersion) {
		return ErrConcurrentUpdate
	}
	return err
}
