package models

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCaregiver Role = "caregiver"
)

// Caregiver is an account that signs in with a phone number and watches
// one or more monitored users.
type Caregiver struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Address struct {
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	PostalCode  string `json:"postalCode"`
	City        string `json:"city"`
}

type LocationType string

const (
	LocationHome    LocationType = "HOME"
	LocationAway    LocationType = "AWAY"
	LocationUnknown LocationType = "UNKNOWN"
)

func (t LocationType) Valid() bool {
	switch t {
	case LocationHome, LocationAway, LocationUnknown:
		return true
	}
	return false
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is the last known position of a wearer. Coordinates of an
// UNKNOWN location are stale and only best effort.
type Location struct {
	Type        LocationType `json:"type"`
	Address     string       `json:"address,omitempty"`
	Coordinates Coordinates  `json:"coordinates"`
}

// MonitoredUser is the wearer of a paired watch.
type MonitoredUser struct {
	ID                   string     `json:"id"`
	CaregiverID          string     `json:"caregiverId"`
	Name                 string     `json:"name"`
	LastName             string     `json:"lastName"`
	Age                  int        `json:"age"`
	Address              Address    `json:"address"`
	IMEI                 string     `json:"imei"`
	Code                 string     `json:"code"`
	Status               string     `json:"status"`
	BatteryLevel         string     `json:"batteryLevel"`
	LastUpdate           string     `json:"lastUpdate"`
	LastSeenAt           *time.Time `json:"lastSeenAt,omitempty"`
	IsActive             bool       `json:"isActive"`
	IsWearing            bool       `json:"isWearing"`
	HasNetworkConnection bool       `json:"hasNetworkConnection"`
	Location             Location   `json:"location"`
	ProfileImage         string     `json:"profileImage,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// Clone returns a copy that shares no memory with u.
func (u MonitoredUser) Clone() MonitoredUser {
	out := u
	if u.LastSeenAt != nil {
		seen := *u.LastSeenAt
		out.LastSeenAt = &seen
	}
	return out
}

func (u MonitoredUser) FullName() string {
	if u.LastName == "" {
		return u.Name
	}
	return u.Name + " " + u.LastName
}

type HealthSample struct {
	UserID     string    `json:"userId"`
	RecordedAt time.Time `json:"recordedAt"`
	HeartRate  int       `json:"heartRate"`
	Steps      int       `json:"steps"`
}

// HealthSeries is the chart payload for the detail screen.
type HealthSeries struct {
	Labels    []string `json:"labels"`
	HeartRate []int    `json:"heartRate"`
	Steps     []int    `json:"steps"`
}

type AuditEvent struct {
	ID          string          `json:"id"`
	CaregiverID string          `json:"caregiverId"`
	Role        Role            `json:"role"`
	Action      string          `json:"action"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"createdAt"`
}
