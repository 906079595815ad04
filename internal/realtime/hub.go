// Package realtime streams new notifications to connected caregiver apps
// over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"carewatch/backend/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Event is one frame on the notification stream.
type Event struct {
	Type         string              `json:"type"`
	UserID       string              `json:"userId"`
	UserName     string              `json:"userName"`
	Notification models.Notification `json:"notification"`
}

type subscriber struct {
	caregiverID string
	conn        *websocket.Conn
	send        chan []byte
}

// Hub keeps the open streams per caregiver. It satisfies notify.Sender so it
// can sit in the same fan-out as push and email.
type Hub struct {
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub accepts upgrades from any origin in allowedOrigins. An empty list
// accepts all origins, which native app clients need since they send none.
func NewHub(allowedOrigins []string) *Hub {
	allowed := map[string]bool{}
	for _, origin := range allowedOrigins {
		if origin != "" {
			allowed[origin] = true
		}
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
		subs: map[string]map[*subscriber]struct{}{},
	}
}

// Serve upgrades the request and streams events for caregiverID until the
// client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, caregiverID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed caregiver=%s: %v", caregiverID, err)
		return
	}
	sub := &subscriber{caregiverID: caregiverID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(sub)
	log.Printf("[ws] subscribed caregiver=%s", caregiverID)

	go h.writeLoop(sub)
	h.readLoop(sub)
}

// Subscribers returns the number of open streams for caregiverID.
func (h *Hub) Subscribers(caregiverID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[caregiverID])
}

func (h *Hub) SendAlert(_ context.Context, caregiverID string, user models.MonitoredUser, n models.Notification) error {
	payload, err := json.Marshal(Event{
		Type:         "notification",
		UserID:       user.ID,
		UserName:     user.FullName(),
		Notification: n,
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	var slow []*subscriber
	for sub := range h.subs[caregiverID] {
		select {
		case sub.send <- payload:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		log.Printf("[ws] dropping slow subscriber caregiver=%s", caregiverID)
		h.remove(sub)
	}
	return nil
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.caregiverID]
	if !ok {
		set = map[*subscriber]struct{}{}
		h.subs[sub.caregiverID] = set
	}
	set[sub] = struct{}{}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.caregiverID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.caregiverID)
	}
	close(sub.send)
}

// readLoop only watches for close and pong frames; clients never send data.
func (h *Hub) readLoop(sub *subscriber) {
	defer func() {
		h.remove(sub)
		sub.conn.Close()
		log.Printf("[ws] unsubscribed caregiver=%s", sub.caregiverID)
	}()
	sub.conn.SetReadLimit(512)
	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		sub.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
