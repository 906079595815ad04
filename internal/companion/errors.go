// Package companion is the headless behavior of the caregiver app: the user
// list and detail screens, the add-user form, the SMS sign-in flow and typed
// navigation between them.
package companion

import (
	"errors"
	"net/http"

	"carewatch/backend/internal/client"
	"carewatch/backend/internal/models"
)

// User-facing failures. Each action collapses every cause into one of these.
var (
	ErrSendCode       = errors.New("could not send code")
	ErrVerifyCode     = errors.New("could not verify code")
	ErrIncompleteForm = errors.New("please fill all fields")
	ErrSave           = errors.New("could not save changes")
)

// ActionError carries the static message shown to the user and the cause
// behind it for logging. errors.Is matches the message sentinel and
// errors.Unwrap returns the cause.
type ActionError struct {
	Message error
	Cause   error
}

func (e *ActionError) Error() string {
	return e.Message.Error()
}

func (e *ActionError) Unwrap() error {
	return e.Cause
}

func (e *ActionError) Is(target error) bool {
	return target == e.Message
}

func actionError(message, cause error) error {
	return &ActionError{Message: message, Cause: cause}
}

// saveError maps a failed write. A 422 from the server is the same field
// validation the form runs locally, so it surfaces as ErrIncompleteForm.
func saveError(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity {
		return actionError(ErrIncompleteForm, &models.ValidationError{
			Missing: apiErr.Missing,
			Invalid: apiErr.Invalid,
		})
	}
	return actionError(ErrSave, err)
}
