package store

import (
	"context"
	"fmt"
	"time"

	"carewatch/backend/internal/models"
)

// Seed enrolls the demo caregiver and the two demo wearers used in local
// development. It is a no-op when the caregiver already has users.
func Seed(ctx context.Context, repo Repository, caregiverPhone string, now time.Time) error {
	caregiver, err := repo.GetCaregiverByPhone(ctx, caregiverPhone)
	if err != nil {
		return err
	}
	if caregiver == nil {
		caregiver, err = repo.CreateCaregiver(ctx, models.Caregiver{
			Role:     models.RoleCaregiver,
			FullName: "Demo Caregiver",
			Phone:    caregiverPhone,
		})
		if err != nil {
			return fmt.Errorf("seed caregiver: %w", err)
		}
	}
	existing, err := repo.ListMonitoredUsers(ctx, caregiver.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	mariaSeen := now.Add(-time.Hour)
	hansSeen := now.Add(-30 * time.Minute)
	maria, err := repo.CreateMonitoredUser(ctx, models.MonitoredUser{
		CaregiverID:          caregiver.ID,
		Name:                 "Maria",
		LastName:             "Schmidt",
		Age:                  78,
		Address:              models.Address{Street: "Unter den Linden", HouseNumber: "12", PostalCode: "10117", City: "Berlin"},
		IMEI:                 "356938035643809",
		Code:                 "MS4711",
		Status:               "Zu Hause",
		BatteryLevel:         "80%",
		LastSeenAt:           &mariaSeen,
		IsActive:             true,
		IsWearing:            true,
		HasNetworkConnection: true,
		Location: models.Location{
			Type:        models.LocationHome,
			Address:     "Unter den Linden 12, 10117 Berlin",
			Coordinates: models.Coordinates{Latitude: 52.520008, Longitude: 13.404954},
		},
		CreatedAt: now.Add(-48 * time.Hour),
	})
	if err != nil {
		return fmt.Errorf("seed maria: %w", err)
	}
	hans, err := repo.CreateMonitoredUser(ctx, models.MonitoredUser{
		CaregiverID:          caregiver.ID,
		Name:                 "Hans",
		LastName:             "Weber",
		Age:                  82,
		Address:              models.Address{Street: "Kastanienallee", HouseNumber: "5", PostalCode: "10435", City: "Berlin"},
		IMEI:                 "490154203237518",
		Code:                 "HW0815",
		Status:               "Unterwegs",
		BatteryLevel:         "65%",
		LastSeenAt:           &hansSeen,
		IsActive:             true,
		IsWearing:            true,
		HasNetworkConnection: true,
		Location: models.Location{
			Type:        models.LocationAway,
			Coordinates: models.Coordinates{Latitude: 52.538, Longitude: 13.4095},
		},
		CreatedAt: now.Add(-47 * time.Hour),
	})
	if err != nil {
		return fmt.Errorf("seed hans: %w", err)
	}

	notifications := []models.Notification{
		{
			UserID:    maria.ID,
			Type:      models.NotificationSOS,
			Message:   "SOS-Alarm ausgelöst",
			Timestamp: now.Add(-3 * time.Hour),
			IsRead:    true,
			Location:  &models.NotificationLocation{Coordinates: maria.Location.Coordinates, Address: maria.Location.Address},
			EmergencyCall: &models.EmergencyCall{
				Number:    "+491701234567",
				Timestamp: now.Add(-3*time.Hour + time.Minute),
				Status:    models.CallCompleted,
			},
		},
		{
			UserID:    maria.ID,
			Type:      models.NotificationBattery,
			Message:   "Akku schwach",
			Timestamp: now.Add(-26 * time.Hour),
			IsRead:    true,
		},
		{
			UserID:    hans.ID,
			Type:      models.NotificationFall,
			Message:   "Sturz erkannt",
			Timestamp: now.Add(-2 * time.Hour),
			Location:  &models.NotificationLocation{Coordinates: hans.Location.Coordinates},
		},
	}
	for _, n := range notifications {
		if _, err := repo.CreateNotification(ctx, n); err != nil {
			return fmt.Errorf("seed notification: %w", err)
		}
	}

	// 24h curve matching the detail screen charts.
	heartRate := []int{75, 72, 78, 82, 76}
	steps := []int{0, 1200, 4500, 8900, 10200}
	start := now.Add(-24 * time.Hour)
	for _, user := range []*models.MonitoredUser{maria, hans} {
		for i := range heartRate {
			sample := models.HealthSample{
				UserID:     user.ID,
				RecordedAt: start.Add(time.Duration(i) * 6 * time.Hour),
				HeartRate:  heartRate[i],
				Steps:      steps[i],
			}
			if err := repo.AddHealthSample(ctx, sample); err != nil {
				return fmt.Errorf("seed health: %w", err)
			}
		}
	}
	return nil
}
