package companion

import (
	"fmt"

	"carewatch/backend/internal/battery"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/monitoring"
	"carewatch/backend/internal/theme"
)

// Card is the summary row of one user on the overview.
type Card struct {
	UserID      string
	Name        string
	Connection  theme.Indicator
	Online      bool
	Status      string
	Battery     *battery.Status
	// BatteryIcon falls back to a muted unknown icon when the level is malformed.
	BatteryIcon theme.Indicator
	LastUpdate  string
}

// UserList renders users in the order given. It never sorts or filters.
type UserList struct {
	users []models.MonitoredUser
}

func NewUserList(users []models.MonitoredUser) *UserList {
	out := make([]models.MonitoredUser, len(users))
	for i, u := range users {
		out[i] = u.Clone()
	}
	return &UserList{users: out}
}

func (l *UserList) Cards() []Card {
	cards := make([]Card, 0, len(l.users))
	for _, u := range l.users {
		card := Card{
			UserID:      u.ID,
			Name:        u.FullName(),
			Connection:  monitoring.ConnectionIndicator(u.IsActive),
			Online:      u.IsActive,
			Status:      u.Status,
			LastUpdate:  u.LastUpdate,
			BatteryIcon: theme.Indicator{Icon: "battery-unknown", Color: theme.Muted},
		}
		if status, err := battery.ClassifyString(u.BatteryLevel); err == nil {
			card.Battery = &status
			card.BatteryIcon = status.Indicator()
		}
		cards = append(cards, card)
	}
	return cards
}

// Select returns the detail route for the i-th card.
func (l *UserList) Select(i int) (UserDetailRoute, error) {
	if i < 0 || i >= len(l.users) {
		return UserDetailRoute{}, fmt.Errorf("no user at position %d", i)
	}
	return UserDetailRoute{User: l.users[i].Clone()}, nil
}
