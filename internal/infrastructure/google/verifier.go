// Package google verifies Google sign-in credentials: authorization codes
// are exchanged at the token endpoint and the resulting ID tokens are
// checked against Google's published signing keys.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/internal/core/ports"
)

const (
	defaultTimeout = 10 * time.Second

	DefaultAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
	DefaultJWKSURL  = "https://www.googleapis.com/oauth2/v3/certs"
	DefaultIssuer   = "https://accounts.google.com"
)

var scopes = []string{oidc.ScopeOpenID, "email", "profile"}

// Config holds the OAuth client registration and provider endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	JWKSURL      string
	Issuer       string
	Timeout      time.Duration
}

// Verifier implements ports.GoogleVerifier.
type Verifier struct {
	oauth    *oauth2.Config
	idTokens *oidc.IDTokenVerifier
	client   *http.Client
	timeout  time.Duration
}

// NewVerifier builds a Verifier that fetches signing keys from cfg.JWKSURL.
func NewVerifier(cfg Config) (*Verifier, error) {
	cfg = withDefaults(cfg)
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: google client id is empty", domain.ErrConfiguration)
	}
	client := &http.Client{Timeout: cfg.Timeout}
	keys := oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), client), cfg.JWKSURL)
	return newVerifier(cfg, keys, client), nil
}

func newVerifier(cfg Config, keys oidc.KeySet, client *http.Client) *Verifier {
	return &Verifier{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		idTokens: oidc.NewVerifier(cfg.Issuer, keys, &oidc.Config{ClientID: cfg.ClientID}),
		client:   client,
		timeout:  cfg.Timeout,
	}
}

func withDefaults(cfg Config) Config {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = DefaultJWKSURL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg
}

// AuthCodeURL returns the consent screen URL.
func (v *Verifier) AuthCodeURL(state string) string {
	return v.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Verify resolves cred to a verified profile. Codes are exchanged first;
// the ID token is then verified for signature, audience, issuer and expiry.
// A profile is only returned for a verified email address.
func (v *Verifier) Verify(ctx context.Context, cred ports.GoogleCredential) (*ports.GoogleProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	ctx = oidc.ClientContext(ctx, v.client)

	var rawIDToken string
	switch cred.Kind {
	case ports.GoogleIDToken:
		rawIDToken = cred.Token
	case ports.GoogleCode:
		raw, err := v.exchange(ctx, cred.Token)
		if err != nil {
			return nil, err
		}
		rawIDToken = raw
	default:
		return nil, fmt.Errorf("%w: unknown credential kind %q", domain.ErrInvalidInput, cred.Kind)
	}

	idToken, err := v.idTokens.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidExternalToken, err)
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %v", domain.ErrInvalidExternalToken, err)
	}
	if claims.Email == "" || !bool(claims.EmailVerified) {
		return nil, fmt.Errorf("%w: email missing or unverified", domain.ErrInvalidExternalToken)
	}

	return &ports.GoogleProfile{
		Subject:    idToken.Subject,
		Email:      strings.ToLower(claims.Email),
		Name:       claims.Name,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
		Picture:    claims.Picture,
	}, nil
}

func (v *Verifier) exchange(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty authorization code", domain.ErrOAuthExchangeFailed)
	}
	tok, err := v.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrOAuthExchangeFailed, err)
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return "", fmt.Errorf("%w: token response has no id_token", domain.ErrOAuthExchangeFailed)
	}
	return raw, nil
}

type idTokenClaims struct {
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	Name          string   `json:"name"`
	GivenName     string   `json:"given_name"`
	FamilyName    string   `json:"family_name"`
	Picture       string   `json:"picture"`
}

// flexBool accepts both true and "true"; Google has emitted either form.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}
