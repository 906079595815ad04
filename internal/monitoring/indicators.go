package monitoring

import (
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/theme"
)

// Indicators are the device-health badges on the detail screen. Each one is
// derived from a single field of the user.
type Indicators struct {
	Connection theme.Indicator `json:"connection"`
	Wearing    theme.Indicator `json:"wearing"`
	Network    theme.Indicator `json:"network"`
	Location   theme.Indicator `json:"location"`
}

func ConnectionIndicator(active bool) theme.Indicator {
	if active {
		return theme.Indicator{Icon: "circle", Color: theme.Success}
	}
	return theme.Indicator{Icon: "circle-outline", Color: theme.Muted}
}

func WearingIndicator(wearing bool) theme.Indicator {
	if wearing {
		return theme.Indicator{Icon: "watch", Color: theme.Success}
	}
	return theme.Indicator{Icon: "watch-off", Color: theme.Warning}
}

func NetworkIndicator(connected bool) theme.Indicator {
	if connected {
		return theme.Indicator{Icon: "wifi", Color: theme.Success}
	}
	return theme.Indicator{Icon: "wifi-off", Color: theme.Error}
}

func LocationIndicator(t models.LocationType) theme.Indicator {
	switch t {
	case models.LocationHome:
		return theme.Indicator{Icon: "home", Color: theme.Success}
	case models.LocationAway:
		return theme.Indicator{Icon: "location-on", Color: theme.Primary}
	default:
		return theme.Indicator{Icon: "location-off", Color: theme.Muted}
	}
}

func IndicatorsFor(u models.MonitoredUser) Indicators {
	return Indicators{
		Connection: ConnectionIndicator(u.IsActive),
		Wearing:    WearingIndicator(u.IsWearing),
		Network:    NetworkIndicator(u.HasNetworkConnection),
		Location:   LocationIndicator(u.Location.Type),
	}
}
