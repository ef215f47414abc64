package ports

import (
	"context"

	"github.com/stockroom/inventory-system/internal/core/domain"
)

type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// AuthResult is returned by every successful login.
type AuthResult struct {
	Token string
	User  *domain.User
}

// GoogleAuthURL is the consent URL plus the state value embedded in it.
type GoogleAuthURL struct {
	URL   string
	State string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	GoogleLogin(ctx context.Context, cred GoogleCredential) (*AuthResult, error)
	GoogleAuthURL(ctx context.Context) (*GoogleAuthURL, error)
}
