//go:build firebase
// +build firebase

package auth

import (
	"context"
	"errors"
	"strings"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// FirebaseProvider accepts Firebase ID tokens from apps that run the phone
// sign-in on the device instead of through send-code/verify-code.
type FirebaseProvider struct {
	client *firebaseauth.Client
}

func NewFirebaseProvider(ctx context.Context, projectID, credentialsFile string) (Provider, error) {
	if strings.TrimSpace(credentialsFile) == "" {
		return nil, errors.New("firebase credentials file is required")
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, cfg, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}

	return &FirebaseProvider{client: client}, nil
}

func (p *FirebaseProvider) Verify(ctx context.Context, token string) (Claims, error) {
	verified, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		return Claims{}, err
	}

	claims := Claims{
		UID:  "firebase:" + verified.UID,
		Role: "caregiver",
	}
	if phone, ok := verified.Claims["phone_number"].(string); ok {
		claims.Phone = phone
	}
	if email, ok := verified.Claims["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := verified.Claims["name"].(string); ok {
		claims.Name = name
	}
	if role, ok := verified.Claims["role"].(string); ok && role != "" {
		claims.Role = role
	}
	if claims.Phone == "" {
		return Claims{}, errors.New("firebase token has no phone number")
	}
	return claims, nil
}
