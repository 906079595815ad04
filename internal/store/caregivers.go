package store

import (
	"context"
	"strings"

	"carewatch/backend/internal/models"
)

// EnsureCaregiver returns the caregiver registered for phone, creating one on
// first sign-in. A concurrent first sign-in that wins the insert is picked up
// by the second lookup.
func EnsureCaregiver(ctx context.Context, repo Repository, phone, fullName string, role models.Role) (*models.Caregiver, bool, error) {
	existing, err := repo.GetCaregiverByPhone(ctx, phone)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	if role == "" {
		role = models.RoleCaregiver
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = "Caregiver"
	}
	created, createErr := repo.CreateCaregiver(ctx, models.Caregiver{
		Role:     role,
		FullName: fullName,
		Phone:    phone,
	})
	if createErr == nil {
		return created, true, nil
	}
	existing, err = repo.GetCaregiverByPhone(ctx, phone)
	if err != nil || existing == nil {
		return nil, false, createErr
	}
	return existing, false, nil
}
