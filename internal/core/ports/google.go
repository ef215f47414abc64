package ports

import "context"

// GoogleCredentialKind tags what a client sent to the Google login route.
type GoogleCredentialKind string

const (
	GoogleIDToken GoogleCredentialKind = "id_token"
	GoogleCode    GoogleCredentialKind = "code"
)

// GoogleCredential is either an ID token or an authorization code.
type GoogleCredential struct {
	Kind  GoogleCredentialKind
	Token string
}

// GoogleProfile holds the verified identity claims of a Google account.
type GoogleProfile struct {
	Subject    string
	Email      string
	Name       string
	GivenName  string
	FamilyName string
	Picture    string
}

// GoogleVerifier turns a Google credential into a verified profile.
type GoogleVerifier interface {
	// Verify exchanges a code when needed and checks the ID token's
	// signature, audience, issuer and expiry.
	Verify(ctx context.Context, cred GoogleCredential) (*GoogleProfile, error)
	// AuthCodeURL builds the consent screen URL carrying state.
	AuthCodeURL(state string) string
}
