package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

var ErrExternalAuthFailure = errors.New("external identity verification failed")

var trustedGoogleIssuers = map[string]struct{}{
	"accounts.google.com":         {},
	"https://accounts.google.com": {},
}

// ExternalIdentity is what a verified third-party assertion tells us about the caller.
type ExternalIdentity struct {
	Email       string
	DisplayName string
	SubjectID   string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, assertion string) (*ExternalIdentity, error)
}

// payloadValidator is satisfied by *idtoken.Validator.
type payloadValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier checks Google ID tokens against Google's published keys and
// the configured OAuth client id.
type GoogleVerifier struct {
	validator payloadValidator
	clientID  string
}

// NewGoogleVerifier builds a verifier that fetches Google's certificates with
// httpClient. An empty clientID yields a verifier that rejects everything.
func NewGoogleVerifier(ctx context.Context, clientID string, httpClient *http.Client) (*GoogleVerifier, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	validator, err := idtoken.NewValidator(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("could not create google token validator: %w", err)
	}
	return &GoogleVerifier{validator: validator, clientID: clientID}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, assertion string) (*ExternalIdentity, error) {
	if v.clientID == "" {
		return nil, fmt.Errorf("%w: google client id is not configured", ErrExternalAuthFailure)
	}

	// Validate checks signature, audience and expiry.
	payload, err := v.validator.Validate(ctx, assertion, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAuthFailure, err)
	}

	if _, ok := trustedGoogleIssuers[payload.Issuer]; !ok {
		return nil, fmt.Errorf("%w: untrusted issuer %q", ErrExternalAuthFailure, payload.Issuer)
	}
	if payload.Subject == "" {
		return nil, fmt.Errorf("%w: assertion has no subject", ErrExternalAuthFailure)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: assertion has no email", ErrExternalAuthFailure)
	}
	if verified, present := emailVerified(payload.Claims); present && !verified {
		return nil, fmt.Errorf("%w: email is not verified", ErrExternalAuthFailure)
	}

	name, _ := payload.Claims["name"].(string)
	return &ExternalIdentity{
		Email:       strings.ToLower(strings.TrimSpace(email)),
		DisplayName: name,
		SubjectID:   payload.Subject,
	}, nil
}

// emailVerified reads email_verified, which Google has sent both as a bool and as a string.
func emailVerified(claims map[string]interface{}) (verified, present bool) {
	switch v := claims["email_verified"].(type) {
	case bool:
		return v, true
	case string:
		return strings.EqualFold(v, "true"), true
	default:
		return false, false
	}
}
