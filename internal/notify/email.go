package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"time"

	"gopkg.in/gomail.v2"

	"carewatch/backend/internal/models"
)

var ErrSMTPNotConfigured = errors.New("smtp credentials not configured")

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender mails SOS and fall alerts to caregivers that have an email
// address on file. Other notification types are left to push and the stream.
type EmailSender struct {
	cfg        SMTPConfig
	dialer     mailDialer
	caregivers CaregiverLookup
}

func NewEmailSender(cfg SMTPConfig, caregivers CaregiverLookup) (*EmailSender, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, ErrSMTPNotConfigured
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.Username
	}
	return &EmailSender{
		cfg:        cfg,
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		caregivers: caregivers,
	}, nil
}

func (s *EmailSender) SendAlert(ctx context.Context, caregiverID string, user models.MonitoredUser, n models.Notification) error {
	if !n.Type.Critical() {
		return nil
	}
	caregiver, err := s.caregivers.GetCaregiver(ctx, caregiverID)
	if err != nil {
		return err
	}
	if caregiver == nil || caregiver.Email == "" {
		return nil
	}
	subject, body, err := renderAlert(user, n)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail))
	m.SetHeader("To", caregiver.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Printf("[notify] alert email sent notification=%s caregiver=%s", n.ID, caregiverID)
	return nil
}

var alertTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #111827;">
  <h2 style="color: {{.Color}};">{{.Title}}</h2>
  <p>{{.Message}}</p>
  <p><strong>Zeitpunkt:</strong> {{.When}}</p>
  {{- if .Address}}
  <p><strong>Ort:</strong> {{.Address}}</p>
  {{- end}}
  {{- if .MapURL}}
  <p><a href="{{.MapURL}}">Auf der Karte anzeigen</a></p>
  {{- end}}
  {{- with .Call}}
  <p><strong>Notruf:</strong> {{.Number}} ({{.Status}})</p>
  {{- end}}
</body>
</html>
`))

type alertView struct {
	Title   string
	Color   string
	Message string
	When    string
	Address string
	MapURL  string
	Call    *models.EmergencyCall
}

func renderAlert(user models.MonitoredUser, n models.Notification) (string, string, error) {
	view := alertView{
		Title:   Title(user, n),
		Color:   n.Type.Indicator().Color.Hex(),
		Message: n.Message,
		When:    n.Timestamp.In(time.Local).Format("02.01.2006 15:04"),
		Call:    n.EmergencyCall,
	}
	if n.Location != nil {
		view.Address = n.Location.Address
		view.MapURL = fmt.Sprintf("https://maps.google.com/?q=%f,%f",
			n.Location.Coordinates.Latitude, n.Location.Coordinates.Longitude)
	}
	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, view); err != nil {
		return "", "", err
	}
	return view.Title, buf.String(), nil
}
