package service

import (
	"errors"
	"fmt"

	"buddybot/internal/models"
	"buddybot/internal/validation"
)

var (
	ErrProfileNotFound         = errors.New("profile not found")
	ErrSessionNotFound         = errors.New("session not found")
	ErrProgressNotFound        = errors.New("skill progress not found")
	ErrAchievementNotFound     = errors.New("achievement not found")
	ErrSessionCompleted        = errors.New("session already completed")
	ErrExportNotAllowed        = errors.New("data export is disabled for this user")
	ErrGuardianSharingDisabled = errors.New("progress sharing with guardian is disabled")
	ErrNoGuardianEmail         = errors.New("no guardian email on profile")
	ErrMissingToken            = errors.New("token has no access token")
)

// Error is returned by StorageService. Type is the category written to the
// error log; Validation is set when the record failed validation.
type Error struct {
	Type       models.ErrorType
	Op         string
	Err        error
	Validation *validation.Result
}

func (e *Error) Error() string {
	if e.Validation != nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Validation.Error())
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errValidation is the sentinel carried by validation failures
var errValidation = errors.New("validation failed")

func validationError(op string, r validation.Result) *Error {
	return &Error{Type: models.ErrorValidation, Op: op, Err: errValidation, Validation: &r}
}

// ValidationResult returns the field errors carried by err, if any
func ValidationResult(err error) (*validation.Result, bool) {
	var se *Error
	if errors.As(err, &se) && se.Validation != nil {
		return se.Validation, true
	}
	return nil, false
}

// ErrorType returns the category of err, unknown when it is not a service error
func ErrorType(err error) models.ErrorType {
	var se *Error
	if errors.As(err, &se) {
		return se.Type
	}
	return models.ErrorUnknown
}
