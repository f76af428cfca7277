package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"google.golang.org/api/idtoken"
)

const ProviderGoogle = "google"

var (
	ErrUntrustedIssuer = errors.New("identity token issuer not accepted")
	// ErrVerifierUnavailable means Google's signing keys could not be
	// fetched; the token itself was never judged.
	ErrVerifierUnavailable = errors.New("identity verifier unavailable")
)

// Google signs ID tokens with one of exactly these two issuer values.
var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// VerifiedClaims is the identity extracted from an assertion whose
// signature, audience and issuer have all been checked.
type VerifiedClaims struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	AvatarURL     string
	Issuer        string
}

// ValidateFunc checks an ID token's signature and audience.
type ValidateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

type GoogleVerifier struct {
	clientID string
	validate ValidateFunc
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

// NewGoogleVerifierWithValidator is used by tests to stub out Google's key
// fetch.
func NewGoogleVerifierWithValidator(clientID string, validate ValidateFunc) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: validate}
}

func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*VerifiedClaims, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrInvalidToken
	}

	payload, err := v.validate(ctx, credential, v.clientID)
	if err != nil {
		if isUpstreamFailure(err) {
			return nil, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !googleIssuers[payload.Issuer] {
		return nil, ErrUntrustedIssuer
	}

	claims := &VerifiedClaims{
		Provider:      ProviderGoogle,
		Subject:       payload.Subject,
		Issuer:        payload.Issuer,
		Email:         strings.ToLower(claimString(payload.Claims, "email")),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
		GivenName:     claimString(payload.Claims, "given_name"),
		FamilyName:    claimString(payload.Claims, "family_name"),
		AvatarURL:     claimString(payload.Claims, "picture"),
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// isUpstreamFailure separates key-fetch failures from bad tokens. idtoken
// returns transport errors unwrapped and reports bad cert responses by
// message only.
func isUpstreamFailure(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "unable to retrieve cert")
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// Google sends email_verified as a bool, older tokens as a string.
func claimBool(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
