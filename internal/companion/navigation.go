package companion

import "carewatch/backend/internal/models"

// Route is one screen together with the data it needs. The set of routes is
// closed; each transition carries a typed payload.
type Route interface {
	Title() string
	isRoute()
}

type AuthRoute struct{}

type HomeRoute struct{}

type AddUserRoute struct{}

type UserDetailRoute struct {
	User models.MonitoredUser
}

type NotificationDetailRoute struct {
	Notification models.Notification
}

func (AuthRoute) Title() string    { return "" }
func (HomeRoute) Title() string    { return "Übersicht" }
func (AddUserRoute) Title() string { return "Neuen Nutzer hinzufügen" }

func (r UserDetailRoute) Title() string { return r.User.Name }

func (r NotificationDetailRoute) Title() string {
	switch r.Notification.Type {
	case models.NotificationSOS:
		return "SOS-Alarm"
	case models.NotificationFall:
		return "Sturzerkennung"
	case models.NotificationBattery:
		return "Akkustand"
	case models.NotificationOffline:
		return "Verbindung"
	default:
		return "Benachrichtigung"
	}
}

func (AuthRoute) isRoute()               {}
func (HomeRoute) isRoute()               {}
func (AddUserRoute) isRoute()            {}
func (UserDetailRoute) isRoute()         {}
func (NotificationDetailRoute) isRoute() {}

// Navigator is the screen stack. The root is never popped.
type Navigator struct {
	stack []Route
}

func NewNavigator(authenticated bool) *Navigator {
	if authenticated {
		return &Navigator{stack: []Route{HomeRoute{}}}
	}
	return &Navigator{stack: []Route{AuthRoute{}}}
}

func (n *Navigator) Current() Route {
	return n.stack[len(n.stack)-1]
}

func (n *Navigator) Depth() int {
	return len(n.stack)
}

func (n *Navigator) Push(r Route) {
	n.stack = append(n.stack, r)
}

// Pop returns to the previous screen. It reports false at the root.
func (n *Navigator) Pop() bool {
	if len(n.stack) <= 1 {
		return false
	}
	n.stack = n.stack[:len(n.stack)-1]
	return true
}

// SignedIn replaces the auth screen with the overview.
func (n *Navigator) SignedIn() {
	n.stack = []Route{HomeRoute{}}
}
