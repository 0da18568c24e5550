package service

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors shared by every service. Handlers map them to HTTP statuses;
// anything else is an internal failure.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrExpired          = errors.New("pending tag request has expired")
	ErrAlreadyConfirmed = errors.New("pending tag request already confirmed")
	ErrAlreadyMarked    = errors.New("attendance already marked for this event")
	ErrGenerationFailed = errors.New("could not generate a unique tag id")
	ErrOutsideWindow    = errors.New("event is not accepting attendance right now")
	ErrValidation       = errors.New("validation failed")
	ErrCooldown         = errors.New("tag write cooldown has not elapsed")
)

// CooldownError carries the earliest instant the next tag write is allowed.
// It matches ErrCooldown with errors.Is.
type CooldownError struct {
	NextAvailableAt time.Time
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: next write available at %s", ErrCooldown, e.NextAvailableAt.UTC().Format(time.RFC3339))
}

func (e *CooldownError) Is(target error) bool { return target == ErrCooldown }

// ValidationError names the offending input field. It matches ErrValidation
// with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
