package companion

import (
	"context"

	"carewatch/backend/internal/models"
)

// Enroller creates a monitored user from a completed form.
type Enroller interface {
	CreateUser(ctx context.Context, form models.Enrollment) (models.MonitoredUser, error)
}

// AddUserForm is the enrollment form. Submit refuses incomplete input before
// anything is sent.
type AddUserForm struct {
	enroller Enroller
	Fields   models.Enrollment
}

func NewAddUserForm(enroller Enroller) *AddUserForm {
	return &AddUserForm{enroller: enroller}
}

// Validate returns an ActionError wrapping *models.ValidationError when a
// field is blank or the age is not numeric.
func (f *AddUserForm) Validate() error {
	if err := f.Fields.Validate(); err != nil {
		return actionError(ErrIncompleteForm, err)
	}
	return nil
}

func (f *AddUserForm) Submit(ctx context.Context) (models.MonitoredUser, error) {
	if err := f.Validate(); err != nil {
		return models.MonitoredUser{}, err
	}
	created, err := f.enroller.CreateUser(ctx, f.Fields)
	if err != nil {
		return models.MonitoredUser{}, saveError(err)
	}
	f.Fields = models.Enrollment{}
	return created, nil
}
