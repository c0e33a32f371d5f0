package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrMissingParticipants = errors.New("client and lawyer ids are required and must differ")
	ErrAccessDenied        = errors.New("access denied")
	ErrValidation          = errors.New("validation failed")

	ErrPersistence      = errors.New("persistence error")
	ErrPermissionDenied = errors.New("permission denied by the data store")
	ErrUnavailable      = errors.New("data store is temporarily unavailable")

	ErrProvisioningFailed = errors.New("chat provisioning failed")

	ErrUnsupportedFileType = errors.New("only images and PDF documents can be attached")
	ErrFileTooLarge        = errors.New("file is larger than the allowed limit")
	ErrChatEnded           = errors.New("chat has ended")

	ErrSessionEnded = errors.New("video session has ended")
	ErrTokenExpired = errors.New("token expired")
	ErrUnauthorized = errors.New("invalid or missing credentials")
	ErrTimeout      = errors.New("request timed out")
)

type PersistenceKind string

const (
	PersistenceKindUnknown          PersistenceKind = "unknown"
	PersistenceKindPermissionDenied PersistenceKind = "permission_denied"
	PersistenceKindUnavailable      PersistenceKind = "unavailable"
)

// PersistenceError is any failed read or write against the store. Step names the
// provisioning step that failed, if any.
type PersistenceError struct {
	Op   string
	Step ProvisioningStep
	Kind PersistenceKind
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s (step %s): %s: %v", e.Op, e.Step, e.Message(), e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message(), e.Err)
}

// Message is the client-safe description of the failure, without driver details.
func (e *PersistenceError) Message() string {
	switch e.Kind {
	case PersistenceKindPermissionDenied:
		return ErrPermissionDenied.Error()
	case PersistenceKindUnavailable:
		return ErrUnavailable.Error()
	default:
		return ErrPersistence.Error()
	}
}

func (e *PersistenceError) Is(target error) bool {
	switch target {
	case ErrPersistence:
		return true
	case ErrPermissionDenied:
		return e.Kind == PersistenceKindPermissionDenied
	case ErrUnavailable:
		return e.Kind == PersistenceKindUnavailable
	}
	return false
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ProvisioningError reports that a request status was written but its chat could not
// be provisioned. The status write stays in place.
type ProvisioningError struct {
	RequestID string
	Err       error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("request %s accepted but chat provisioning failed: %v", e.RequestID, e.Err)
}

func (e *ProvisioningError) Is(target error) bool {
	return target == ErrProvisioningFailed
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}
