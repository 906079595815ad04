package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Enrollment is the add-user form. Every field is required.
type Enrollment struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Age          string `json:"age"`
	Street       string `json:"street"`
	HouseNumber  string `json:"houseNumber"`
	PostalCode   string `json:"postalCode"`
	City         string `json:"city"`
	IMEI         string `json:"imei"`
	Code         string `json:"code"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// ValidationError lists the form fields that blocked a submission.
type ValidationError struct {
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the form fields in display order.
func (e Enrollment) Fields() []struct{ Name, Value string } {
	return []struct{ Name, Value string }{
		{"firstName", e.FirstName},
		{"lastName", e.LastName},
		{"age", e.Age},
		{"street", e.Street},
		{"houseNumber", e.HouseNumber},
		{"postalCode", e.PostalCode},
		{"city", e.City},
		{"imei", e.IMEI},
		{"code", e.Code},
	}
}

// Validate returns a *ValidationError when a field is blank after trimming or
// the age is not a whole number between 0 and 150.
func (e Enrollment) Validate() error {
	verr := &ValidationError{}
	for _, f := range e.Fields() {
		if strings.TrimSpace(f.Value) == "" {
			verr.Missing = append(verr.Missing, f.Name)
		}
	}
	if age := strings.TrimSpace(e.Age); age != "" {
		if n, err := strconv.Atoi(age); err != nil || n < 0 || n > 150 {
			verr.Invalid = append(verr.Invalid, "age")
		}
	}
	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return verr
	}
	return nil
}

// MonitoredUser builds the record created at enrollment. A fresh watch has not
// reported yet, so it starts disconnected at an unknown location.
func (e Enrollment) MonitoredUser(caregiverID string) (MonitoredUser, error) {
	if err := e.Validate(); err != nil {
		return MonitoredUser{}, err
	}
	age, err := strconv.Atoi(strings.TrimSpace(e.Age))
	if err != nil {
		return MonitoredUser{}, fmt.Errorf("parse age: %w", err)
	}
	return MonitoredUser{
		CaregiverID: caregiverID,
		Name:        strings.TrimSpace(e.FirstName),
		LastName:    strings.TrimSpace(e.LastName),
		Age:         age,
		Address: Address{
			Street:      strings.TrimSpace(e.Street),
			HouseNumber: strings.TrimSpace(e.HouseNumber),
			PostalCode:  strings.TrimSpace(e.PostalCode),
			City:        strings.TrimSpace(e.City),
		},
		IMEI:         strings.TrimSpace(e.IMEI),
		Code:         strings.TrimSpace(e.Code),
		Status:       "Unbekannt",
		BatteryLevel: "100%",
		Location:     Location{Type: LocationUnknown},
		ProfileImage: strings.TrimSpace(e.ProfileImage),
	}, nil
}
