package auth

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/you/otpauth/domain"
	"google.golang.org/api/idtoken"
)

// GoogleProvider is the provider name stored on linked accounts
const GoogleProvider = "google"

// DefaultGoogleIssuers are the issuers Google signs ID tokens with
var DefaultGoogleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleVerifier implements domain.ProviderTokenVerifier for Google ID tokens.
// Signature, expiry and audience are checked by idtoken; the issuer allow-list here.
type GoogleVerifier struct {
	clientID string
	issuers  []string
	validate validateFunc
}

// NewGoogleVerifier creates a verifier bound to one OAuth client id
func NewGoogleVerifier(clientID string, issuers []string) *GoogleVerifier {
	if len(issuers) == 0 {
		issuers = DefaultGoogleIssuers
	}
	return &GoogleVerifier{
		clientID: clientID,
		issuers:  issuers,
		validate: idtoken.Validate,
	}
}

// Provider implements domain.ProviderTokenVerifier
func (g *GoogleVerifier) Provider() string { return GoogleProvider }

// Verify implements domain.ProviderTokenVerifier
func (g *GoogleVerifier) Verify(ctx context.Context, token string) (*domain.VerifiedIdentity, error) {
	if g.clientID == "" {
		return nil, &domain.VerificationFailure{Reason: "provider_not_configured"}
	}
	if strings.TrimSpace(token) == "" {
		return nil, &domain.VerificationFailure{Reason: "empty_token"}
	}

	payload, err := g.validate(ctx, token, g.clientID)
	if err != nil {
		return nil, &domain.VerificationFailure{Reason: "invalid_token", Err: err}
	}

	if !slices.Contains(g.issuers, payload.Issuer) {
		return nil, &domain.VerificationFailure{Reason: "wrong_issuer", Err: errors.New(payload.Issuer)}
	}
	if payload.Subject == "" {
		return nil, &domain.VerificationFailure{Reason: "missing_subject"}
	}

	email, _ := payload.Claims["email"].(string)
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, &domain.VerificationFailure{Reason: "missing_email"}
	}

	name, _ := payload.Claims["name"].(string)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	picture, _ := payload.Claims["picture"].(string)

	return &domain.VerifiedIdentity{
		Provider:      GoogleProvider,
		Subject:       payload.Subject,
		Email:         email,
		Name:          name,
		Picture:       picture,
		EmailVerified: claimBool(payload.Claims["email_verified"]),
	}, nil
}

// email_verified arrives as a bool or, from some issuers, the string "true"
func claimBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	default:
		return false
	}
}
