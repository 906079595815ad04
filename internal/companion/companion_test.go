package companion

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"carewatch/backend/internal/battery"
	"carewatch/backend/internal/client"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/theme"
)

func demoUsers() []models.MonitoredUser {
	seen := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	return []models.MonitoredUser{
		{
			ID: "u-maria", Name: "Maria", LastName: "Schmidt", Age: 78,
			Status: "Zu Hause", BatteryLevel: "80%", LastUpdate: "1h", LastSeenAt: &seen,
			IsActive: true, IsWearing: true, HasNetworkConnection: true,
			Location: models.Location{Type: models.LocationHome, Coordinates: models.Coordinates{Latitude: 52.520008, Longitude: 13.404954}},
		},
		{
			ID: "u-hans", Name: "Hans", LastName: "Weber", Age: 82,
			Status: "Unterwegs", BatteryLevel: "18%", LastUpdate: "30m",
			IsActive: false, IsWearing: true, HasNetworkConnection: false,
			Location: models.Location{Type: models.LocationAway},
		},
	}
}

func demoNotifications() []models.Notification {
	return []models.Notification{
		{ID: "n-2", UserID: "u-maria", Type: models.NotificationBattery, Message: "Akku schwach"},
		{
			ID: "n-1", UserID: "u-maria", Type: models.NotificationSOS, Message: "SOS",
			Location:      &models.NotificationLocation{Address: "Unter den Linden 12"},
			EmergencyCall: &models.EmergencyCall{Number: "112", Status: models.CallCompleted},
		},
	}
}

type fakeAuth struct {
	sendErr   error
	verifyErr error
	sentTo    []string
}

func (f *fakeAuth) SendCode(_ context.Context, phone string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentTo = append(f.sentTo, phone)
	return nil
}

func (f *fakeAuth) VerifyCode(_ context.Context, phone, code string) (client.Session, error) {
	if f.verifyErr != nil {
		return client.Session{}, f.verifyErr
	}
	return client.Session{Token: "tok-" + code, Caregiver: models.Caregiver{Phone: phone}}, nil
}

func TestAuthFlowWaitsForBackendAcknowledgement(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("502 bad gateway")
	backend := &fakeAuth{sendErr: cause}
	flow := NewAuthFlow(backend)

	err := flow.SendCode(ctx, "+491701234567")
	if !errors.Is(err, ErrSendCode) || err.Error() != "could not send code" {
		t.Fatalf("err = %v", err)
	}
	if errors.Unwrap(err) != cause {
		t.Fatalf("cause = %v", errors.Unwrap(err))
	}
	if flow.State() != AwaitingPhoneNumber {
		t.Fatalf("state moved to %s without acknowledgement", flow.State())
	}

	backend.sendErr = nil
	if err := flow.SendCode(ctx, " +491701234567 "); err != nil {
		t.Fatalf("SendCode: %v", err)
	}
	if flow.State() != AwaitingVerificationCode || flow.Phone() != "+491701234567" {
		t.Fatalf("state = %s phone = %q", flow.State(), flow.Phone())
	}

	backend.verifyErr = errors.New("401 invalid or expired code")
	if _, err := flow.VerifyCode(ctx, "000000"); !errors.Is(err, ErrVerifyCode) {
		t.Fatalf("verify err = %v", err)
	}
	if flow.State() != AwaitingVerificationCode {
		t.Fatalf("failed verification changed state to %s", flow.State())
	}

	backend.verifyErr = nil
	session, err := flow.VerifyCode(ctx, "123456")
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if flow.State() != Authenticated || session.Token != "tok-123456" || flow.Session().Token != session.Token {
		t.Fatalf("state = %s session = %+v", flow.State(), session)
	}
	if err := flow.SendCode(ctx, "+491701234567"); !errors.Is(err, ErrSendCode) {
		t.Fatalf("send after sign-in err = %v", err)
	}
}

func TestAuthFlowRejectsOutOfOrderInput(t *testing.T) {
	ctx := context.Background()
	backend := &fakeAuth{}
	flow := NewAuthFlow(backend)

	if _, err := flow.VerifyCode(ctx, "123456"); !errors.Is(err, ErrVerifyCode) {
		t.Fatalf("verify before send err = %v", err)
	}
	if err := flow.SendCode(ctx, "   "); !errors.Is(err, ErrSendCode) {
		t.Fatalf("blank phone err = %v", err)
	}
	if len(backend.sentTo) != 0 {
		t.Fatal("blank phone reached the backend")
	}
}

func TestSelectingUserYieldsMatchingDetail(t *testing.T) {
	users := demoUsers()
	list := NewUserList(users)
	nav := NewNavigator(true)
	if _, ok := nav.Current().(HomeRoute); !ok {
		t.Fatalf("start route = %T", nav.Current())
	}

	for i, want := range users {
		route, err := list.Select(i)
		if err != nil {
			t.Fatalf("Select(%d): %v", i, err)
		}
		nav.Push(route)
		if nav.Current().Title() != want.Name {
			t.Fatalf("title = %q, want %q", nav.Current().Title(), want.Name)
		}
		current, ok := nav.Current().(UserDetailRoute)
		if !ok {
			t.Fatalf("current = %T", nav.Current())
		}
		detail := NewUserDetail(nil, current.User, nil)
		if detail.Title() != want.Name || detail.User().ID != want.ID {
			t.Fatalf("detail shows %q for selected %q", detail.Title(), want.Name)
		}
		if !nav.Pop() {
			t.Fatal("Pop failed")
		}
	}
	if nav.Pop() {
		t.Fatal("popped the root route")
	}
	if _, err := list.Select(len(users)); err == nil {
		t.Fatal("expected error for out of range selection")
	}
}

func TestCardsKeepOrderAndTiers(t *testing.T) {
	cards := NewUserList(demoUsers()).Cards()
	if len(cards) != 2 || cards[0].Name != "Maria Schmidt" || cards[1].Name != "Hans Weber" {
		t.Fatalf("cards = %+v", cards)
	}
	if cards[0].Battery == nil || cards[0].Battery.Tier != battery.TierGood {
		t.Fatalf("maria battery = %+v", cards[0].Battery)
	}
	if cards[1].Battery == nil || cards[1].Battery.Tier != battery.TierCritical {
		t.Fatalf("hans battery = %+v", cards[1].Battery)
	}
	if !cards[0].Online || cards[1].Online || cards[0].Connection == cards[1].Connection {
		t.Fatalf("online indicators = %+v / %+v", cards[0], cards[1])
	}
	if cards[1].BatteryIcon != (theme.Indicator{Icon: "battery-0-bar", Color: theme.Error}) {
		t.Fatalf("hans battery icon = %+v", cards[1].BatteryIcon)
	}

	users := demoUsers()
	users[0].BatteryLevel = "n/a"
	if card := NewUserList(users).Cards()[0]; card.Battery != nil || card.BatteryIcon.Color != theme.Muted {
		t.Fatalf("malformed battery card = %+v", card)
	}
}

func TestDetailDerivesStateOnce(t *testing.T) {
	users := demoUsers()
	detail := NewUserDetail(nil, users[1], demoNotifications())

	status, err := detail.Battery()
	if err != nil || status.Tier != battery.TierCritical {
		t.Fatalf("battery = %+v, %v", status, err)
	}
	if detail.Indicators().Network.Icon != "wifi-off" || detail.Indicators().Wearing.Icon != "watch" {
		t.Fatalf("indicators = %+v", detail.Indicators())
	}

	users[1].BatteryLevel = "99%"
	if status, _ := detail.Battery(); status.Tier != battery.TierCritical {
		t.Fatal("detail tier follows caller's slice")
	}

	got := detail.Notifications()
	if len(got) != 2 || got[0].ID != "n-2" || got[1].ID != "n-1" {
		t.Fatalf("notification order changed: %+v", got)
	}
	route, err := detail.OpenNotification("n-1")
	if err != nil {
		t.Fatalf("OpenNotification: %v", err)
	}
	if route.Notification.EmergencyCall == nil || route.Notification.Location == nil || route.Title() != "SOS-Alarm" {
		t.Fatalf("route = %+v", route)
	}
	if _, err := detail.OpenNotification("missing"); err == nil {
		t.Fatal("expected error for unknown notification")
	}

	detail.MarkRead(models.Notification{ID: "n-2", IsRead: true})
	if !detail.Notifications()[0].IsRead {
		t.Fatal("read flag not applied")
	}
}

func TestDetailRejectsMalformedBattery(t *testing.T) {
	user := demoUsers()[0]
	user.BatteryLevel = "130%"
	if _, err := NewUserDetail(nil, user, nil).Battery(); !errors.Is(err, battery.ErrOutOfRange) {
		t.Fatalf("err = %v", err)
	}
}

type fakeRepo struct {
	saved []models.MonitoredUser
	err   error
}

func (f *fakeRepo) UpdateUser(_ context.Context, user models.MonitoredUser) (models.MonitoredUser, error) {
	if f.err != nil {
		return models.MonitoredUser{}, f.err
	}
	f.saved = append(f.saved, user)
	user.LastUpdate = "now"
	return user, nil
}

func TestCancelEditLeavesOriginalUnchanged(t *testing.T) {
	original := demoUsers()[0]
	snapshot := original.Clone()
	repo := &fakeRepo{}
	detail := NewUserDetail(repo, original, nil)

	working := detail.BeginEdit()
	working.Name = "Marianne"
	working.Address.City = "Potsdam"
	*working.LastSeenAt = time.Time{}
	if detail.User().Name != "Maria" {
		t.Fatal("edit leaked into the displayed record")
	}
	detail.Cancel()

	if detail.Editing() {
		t.Fatal("still editing after cancel")
	}
	if !reflect.DeepEqual(detail.User(), snapshot) {
		t.Fatalf("record changed: %+v", detail.User())
	}
	if !reflect.DeepEqual(original, snapshot) {
		t.Fatalf("caller's record changed: %+v", original)
	}
	if len(repo.saved) != 0 {
		t.Fatal("cancel persisted the working copy")
	}
}

func TestSavePersistsWorkingCopy(t *testing.T) {
	repo := &fakeRepo{}
	detail := NewUserDetail(repo, demoUsers()[0], nil)

	if _, err := detail.Save(context.Background()); !errors.Is(err, ErrSave) {
		t.Fatalf("save outside edit mode err = %v", err)
	}

	detail.BeginEdit().Status = "Im Garten"
	repo.err = errors.New("offline")
	if _, err := detail.Save(context.Background()); !errors.Is(err, ErrSave) {
		t.Fatalf("failed save err = %v", err)
	}
	if !detail.Editing() || detail.BeginEdit().Status != "Im Garten" {
		t.Fatal("failed save dropped the working copy")
	}

	repo.err = nil
	saved, err := detail.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if detail.Editing() || saved.Status != "Im Garten" || detail.User().LastUpdate != "now" {
		t.Fatalf("saved = %+v editing = %v", saved, detail.Editing())
	}
}

type fakeEnroller struct {
	created []models.Enrollment
	err     error
}

func (f *fakeEnroller) CreateUser(_ context.Context, form models.Enrollment) (models.MonitoredUser, error) {
	if f.err != nil {
		return models.MonitoredUser{}, f.err
	}
	f.created = append(f.created, form)
	return models.MonitoredUser{ID: "new", Name: form.FirstName}, nil
}

func filledForm() models.Enrollment {
	return models.Enrollment{
		FirstName: "Max", LastName: "Mustermann", Age: "80",
		Street: "Hauptstraße", HouseNumber: "1", PostalCode: "10115", City: "Berlin",
		IMEI: "111111111111111", Code: "MM0001",
	}
}

func TestAddUserRejectsAnyEmptyField(t *testing.T) {
	blankers := map[string]func(*models.Enrollment){
		"firstName":   func(e *models.Enrollment) { e.FirstName = "" },
		"lastName":    func(e *models.Enrollment) { e.LastName = "" },
		"age":         func(e *models.Enrollment) { e.Age = "" },
		"street":      func(e *models.Enrollment) { e.Street = "" },
		"houseNumber": func(e *models.Enrollment) { e.HouseNumber = "" },
		"postalCode":  func(e *models.Enrollment) { e.PostalCode = "" },
		"city":        func(e *models.Enrollment) { e.City = " " },
		"imei":        func(e *models.Enrollment) { e.IMEI = "" },
		"code":        func(e *models.Enrollment) { e.Code = "\t" },
	}
	for field, blank := range blankers {
		t.Run(field, func(t *testing.T) {
			enroller := &fakeEnroller{}
			form := NewAddUserForm(enroller)
			form.Fields = filledForm()
			blank(&form.Fields)

			_, err := form.Submit(context.Background())
			if !errors.Is(err, ErrIncompleteForm) || err.Error() != "please fill all fields" {
				t.Fatalf("err = %v", err)
			}
			var verr *models.ValidationError
			if !errors.As(err, &verr) || len(verr.Missing) != 1 || verr.Missing[0] != field {
				t.Fatalf("validation = %+v", verr)
			}
			if len(enroller.created) != 0 {
				t.Fatal("incomplete form created a user")
			}
		})
	}
}

func TestAddUserSubmit(t *testing.T) {
	enroller := &fakeEnroller{}
	form := NewAddUserForm(enroller)
	form.Fields = filledForm()
	form.Fields.Age = "achtzig"
	if _, err := form.Submit(context.Background()); !errors.Is(err, ErrIncompleteForm) {
		t.Fatalf("non-numeric age err = %v", err)
	}

	form.Fields.Age = "80"
	created, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if created.Name != "Max" || len(enroller.created) != 1 {
		t.Fatalf("created = %+v", created)
	}
	if form.Fields != (models.Enrollment{}) {
		t.Fatal("form not cleared after submit")
	}
}

func TestAddUserServerValidationIsIncompleteForm(t *testing.T) {
	enroller := &fakeEnroller{err: &client.APIError{
		Status:  http.StatusUnprocessableEntity,
		Message: "please fill all fields",
		Missing: []string{"city"},
	}}
	form := NewAddUserForm(enroller)
	form.Fields = filledForm()

	_, err := form.Submit(context.Background())
	if !errors.Is(err, ErrIncompleteForm) {
		t.Fatalf("err = %v", err)
	}
	var verr *models.ValidationError
	if !errors.As(err, &verr) || len(verr.Missing) != 1 || verr.Missing[0] != "city" {
		t.Fatalf("validation = %+v", verr)
	}
	if form.Fields != filledForm() {
		t.Fatal("form cleared after a rejected submit")
	}

	enroller.err = &client.APIError{Status: http.StatusConflict, Message: "imei already enrolled"}
	if _, err := form.Submit(context.Background()); !errors.Is(err, ErrSave) {
		t.Fatalf("conflict err = %v", err)
	}
}

func TestNavigatorStartsAtAuthWhenSignedOut(t *testing.T) {
	nav := NewNavigator(false)
	if _, ok := nav.Current().(AuthRoute); !ok {
		t.Fatalf("start = %T", nav.Current())
	}
	nav.SignedIn()
	if _, ok := nav.Current().(HomeRoute); !ok || nav.Depth() != 1 {
		t.Fatalf("after sign-in = %T depth %d", nav.Current(), nav.Depth())
	}
	nav.Push(AddUserRoute{})
	if nav.Current().Title() != "Neuen Nutzer hinzufügen" {
		t.Fatalf("title = %q", nav.Current().Title())
	}
}
