package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"carewatch/backend/internal/auth"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/notify"
	"carewatch/backend/internal/realtime"
	"carewatch/backend/internal/store"
	"carewatch/backend/internal/verification"
)

func TestNotificationStreamReceivesDeviceEvents(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()
	if err := store.Seed(ctx, repo, demoPhone, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	caregiver, err := repo.GetCaregiverByPhone(ctx, demoPhone)
	if err != nil || caregiver == nil {
		t.Fatalf("caregiver: %v", err)
	}
	hub := realtime.NewHub(nil)
	api := API{
		Store:        repo,
		AuthProvider: auth.DevProvider{DefaultPhone: demoPhone},
		TokenIssuer:  auth.DevProvider{DefaultPhone: demoPhone},
		Codes:        verification.NewService(verification.NewMemoryStore(), &capturedSMS{}, verification.Options{}),
		Notifier:     notify.Multi{hub},
		Hub:          hub,
	}
	srv := httptest.NewServer(api.Router())
	defer srv.Close()

	if resp, err := http.Get(srv.URL + "/api/v1/notifications/stream?access_token=" + url.QueryEscape(demoToken)); err == nil {
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("plain GET with query token status = %d", resp.StatusCode)
		}
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/notifications/stream?access_token=" + url.QueryEscape(demoToken)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers(caregiver.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/devices/490154203237518/events",
		strings.NewReader(`{"type":"FALL"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(deviceCodeHeader, "HW0815")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("event status = %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev realtime.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Notification.Type != models.NotificationFall || ev.UserName == "" {
		t.Fatalf("event = %+v", ev)
	}
}
