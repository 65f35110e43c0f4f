package models

import "fmt"

// AppError wraps a failed operation with a message safe to show the user.
// Op names the operation for logs, Message is the French line the UI prints.
type AppError struct {
	Op      string
	Err     error
	Message string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// UserMessage returns the displayable message, falling back to a generic
// French line when none was set.
func (e *AppError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "Une erreur inattendue s'est produite"
}

// AuthError represents a failed authentication or authorization check.
// Message carries the backend's detail when one was returned.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NotFoundError represents an error when a requested resource is not found
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// ValidationError represents an error when data validation fails
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StorageError represents an error when storage operations fail
type StorageError struct {
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
