package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"carewatch/backend/internal/auth"
	httpapi "carewatch/backend/internal/http"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/store"
	"carewatch/backend/internal/verification"
)

type inbox struct {
	mu   sync.Mutex
	last string
}

func (i *inbox) Send(_ context.Context, _, body string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.last = body
	return nil
}

func (i *inbox) code() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return regexp.MustCompile(`[0-9]{6}`).FindString(i.last)
}

func newServer(t *testing.T) (*httptest.Server, *inbox) {
	t.Helper()
	repo := store.NewMemory()
	if err := store.Seed(context.Background(), repo, "+491701234567", time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	jwtProvider, err := auth.NewJWTProvider("client-test-secret-123", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	sms := &inbox{}
	api := httpapi.API{
		Store:        repo,
		AuthProvider: jwtProvider,
		TokenIssuer:  jwtProvider,
		Codes: verification.NewService(verification.NewMemoryStore(), sms, verification.Options{
			BcryptCost: bcrypt.MinCost,
		}),
	}
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return srv, sms
}

func TestClientEndToEnd(t *testing.T) {
	srv, sms := newServer(t)
	ctx := context.Background()
	c := New(srv.URL + "/")

	if _, err := c.ListUsers(ctx); err == nil {
		t.Fatal("expected unauthorized before login")
	}
	if err := c.SendCode(ctx, "+491701234567"); err != nil {
		t.Fatalf("SendCode: %v", err)
	}
	session, err := c.VerifyCode(ctx, "+491701234567", sms.code())
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if c.Token() != session.Token {
		t.Fatal("client did not keep the session token")
	}

	users, err := c.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("ListUsers = %d, %v", len(users), err)
	}
	detail, err := c.GetUser(ctx, users[0].ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if detail.User.Name != "Maria" || detail.Battery == nil || detail.Battery.Level != 80 {
		t.Fatalf("detail = %+v", detail)
	}
	if len(detail.Notifications) != 2 {
		t.Fatalf("notifications = %d", len(detail.Notifications))
	}

	edited := detail.User.Clone()
	edited.Status = "Im Garten"
	saved, err := c.UpdateUser(ctx, edited)
	if err != nil || saved.Status != "Im Garten" {
		t.Fatalf("UpdateUser = %+v, %v", saved, err)
	}

	n, err := c.MarkNotificationRead(ctx, detail.Notifications[0].ID)
	if err != nil || !n.IsRead {
		t.Fatalf("MarkNotificationRead = %+v, %v", n, err)
	}
	report, err := c.Health(ctx, users[0].ID, 24)
	if err != nil || len(report.Series.Labels) != 5 {
		t.Fatalf("Health = %+v, %v", report, err)
	}
	if err := c.RegisterPushToken(ctx, "fcm-token", "ios"); err != nil {
		t.Fatalf("RegisterPushToken: %v", err)
	}
}

func TestClientSurfacesValidationErrors(t *testing.T) {
	srv, _ := newServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.CreateUser(ctx, models.Enrollment{FirstName: "Max"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d", apiErr.Status)
	}

	jwtProvider, _ := auth.NewJWTProvider("client-test-secret-123", time.Hour)
	token, _ := jwtProvider.Issue(ctx, auth.Claims{Phone: "+491701234567"})
	c.SetToken(token)
	_, err = c.CreateUser(ctx, models.Enrollment{FirstName: "Max"})
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Message != "please fill all fields" || len(apiErr.Missing) != 8 {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestDecodeAPIErrorPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := New(srv.URL).SendCode(context.Background(), "+491701234567")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusTooManyRequests || apiErr.Message != "rate limit exceeded" {
		t.Fatalf("err = %v", err)
	}
}
