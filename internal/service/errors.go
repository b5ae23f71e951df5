package service

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateRule        = errors.New("rule already exists")
	ErrInvalidSeverity      = errors.New("invalid severity, must be green, yellow or red")
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrStorage              = errors.New("storage error")
	ErrNotificationDelivery = errors.New("notification delivery failed")
)

// DuplicateRuleError rule name collision on create
type DuplicateRuleError struct {
	Name string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %q already exists", e.Name)
}

func (e *DuplicateRuleError) Unwrap() error { return ErrDuplicateRule }

// InvalidInputError malformed argument, rejected before any mutation
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// StorageError underlying store call failed
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// DeliveryError best-effort outward send failed
type DeliveryError struct {
	ChatID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver message to %d: %v", e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() []error { return []error{ErrNotificationDelivery, e.Err} }
