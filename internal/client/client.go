// Package client is the typed HTTP client the companion layer uses to talk
// to the carewatch API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carewatch/backend/internal/battery"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/monitoring"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response. Message is the server's "error" field.
type APIError struct {
	Status  int
	Message string
	Missing []string
	Invalid []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token sent with every later request.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

type Session struct {
	Token     string           `json:"token"`
	Caregiver models.Caregiver `json:"caregiver"`
}

// UserDetail is the payload of the user detail screen.
type UserDetail struct {
	User          models.MonitoredUser  `json:"user"`
	Battery       *battery.Status       `json:"battery,omitempty"`
	Indicators    monitoring.Indicators `json:"indicators"`
	Notifications []models.Notification `json:"notifications"`
}

type HealthReport struct {
	Series  models.HealthSeries   `json:"series"`
	Samples []models.HealthSample `json:"samples"`
}

func (c *Client) SendCode(ctx context.Context, phone string) error {
	return c.do(ctx, http.MethodPost, "/auth/send-code", map[string]string{"phoneNumber": phone}, nil)
}

// VerifyCode exchanges a code for a session and keeps its token.
func (c *Client) VerifyCode(ctx context.Context, phone, code string) (Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/auth/verify-code", map[string]string{"phoneNumber": phone, "code": code}, &session)
	if err != nil {
		return Session{}, err
	}
	c.token = session.Token
	return session, nil
}

func (c *Client) Me(ctx context.Context) (models.Caregiver, error) {
	var out models.Caregiver
	err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context) ([]models.MonitoredUser, error) {
	var out []models.MonitoredUser
	err := c.do(ctx, http.MethodGet, "/api/v1/users", nil, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id string) (UserDetail, error) {
	var out UserDetail
	err := c.do(ctx, http.MethodGet, "/api/v1/users/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, form models.Enrollment) (models.MonitoredUser, error) {
	var out models.MonitoredUser
	err := c.do(ctx, http.MethodPost, "/api/v1/users", form, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, user models.MonitoredUser) (models.MonitoredUser, error) {
	var out models.MonitoredUser
	err := c.do(ctx, http.MethodPut, "/api/v1/users/"+url.PathEscape(user.ID), user, &out)
	return out, err
}

func (c *Client) UserNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	var out []models.Notification
	err := c.do(ctx, http.MethodGet, "/api/v1/users/"+url.PathEscape(userID)+"/notifications", nil, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context, userID string, hours int) (HealthReport, error) {
	path := "/api/v1/users/" + url.PathEscape(userID) + "/health"
	if hours > 0 {
		path += fmt.Sprintf("?hours=%d", hours)
	}
	var out HealthReport
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) GetNotification(ctx context.Context, id string) (models.Notification, error) {
	var out models.Notification
	err := c.do(ctx, http.MethodGet, "/api/v1/notifications/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) (models.Notification, error) {
	var out models.Notification
	err := c.do(ctx, http.MethodPost, "/api/v1/notifications/"+url.PathEscape(id)+"/read", nil, &out)
	return out, err
}

func (c *Client) RegisterPushToken(ctx context.Context, token, platform string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/devices/token", map[string]string{"token": token, "platform": platform}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error   string   `json:"error"`
		Missing []string `json:"missing"`
		Invalid []string `json:"invalid"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Missing = payload.Missing
		apiErr.Invalid = payload.Invalid
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
