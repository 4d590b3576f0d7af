package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/policy"
)

var (
	// ErrForumForbidden indicates the caller may not perform the requested forum action.
	ErrForumForbidden = errors.New("insufficient permissions for forum operation")
	// ErrProfileNotFound indicates the authenticated user has no profile row.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidRequest indicates a structurally valid payload that cannot be applied.
	ErrInvalidRequest = errors.New("invalid request")
)

// StoreError wraps a persistence failure whose message is safe to return to the client.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// storeErr classifies a repository error. Not-found and policy outcomes pass through untouched.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, policy.ErrDenied),
		errors.Is(err, models.ErrAppendOnly):
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func forumDenied(action policy.ForumAction) error {
	return fmt.Errorf("%w: %s", ErrForumForbidden, action)
}

func invalidRequest(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, reason)
}
