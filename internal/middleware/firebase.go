package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

type FirebaseAuthConfig struct {
	ProjectID       string
	CredentialsJSON string
}

// FirebaseVerifier accepts Firebase ID tokens, optionally restricted to a
// set of admin UIDs or to users carrying an "admin" custom claim.
type FirebaseVerifier struct {
	client    *auth.Client
	adminUIDs map[string]bool
}

// NewFirebaseVerifier returns nil and no error when Firebase is not
// configured.
func NewFirebaseVerifier(ctx context.Context, cfg FirebaseAuthConfig, adminUIDs ...string) (*FirebaseVerifier, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, nil
	}

	var opts []option.ClientOption
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app init: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth init: %w", err)
	}

	v := &FirebaseVerifier{client: client, adminUIDs: make(map[string]bool)}
	for _, uid := range adminUIDs {
		if uid = strings.TrimSpace(uid); uid != "" {
			v.adminUIDs[uid] = true
		}
	}
	return v, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (string, error) {
	if v == nil || v.client == nil {
		return "", errors.New("firebase auth not configured")
	}
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	uid := strings.TrimSpace(token.UID)
	if uid == "" {
		return "", ErrInvalidToken
	}
	if !v.allowed(uid, token.Claims) {
		return "", ErrInvalidToken
	}
	return uid, nil
}

func (v *FirebaseVerifier) allowed(uid string, claims map[string]interface{}) bool {
	if v.adminUIDs[uid] {
		return true
	}
	isAdmin, _ := claims["admin"].(bool)
	return isAdmin
}
