package ports

import (
	"context"

	"github.com/uptask/project-system/internal/core/domain"
)

// RegisterInput carries the data needed to create a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Credentials is an email/password pair presented at login.
type Credentials struct {
	Email    string
	Password string
}

// AuthSession is returned on successful login.
type AuthSession struct {
	Token string
	User  *domain.User
}

// AuthService implements registration, authentication and the
// confirmation / password-recovery token cycle.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, creds Credentials) (*AuthSession, error)
	// Confirm activates the account matching the single-use token and
	// clears the token.
	Confirm(ctx context.Context, token string) error
	// RequestPasswordReset issues a fresh recovery token and mails it.
	RequestPasswordReset(ctx context.Context, email string) error
	// ValidateResetToken checks whether a recovery token matches a user.
	ValidateResetToken(ctx context.Context, token string) error
	// ResetPassword sets a new password for the token's user and clears
	// the token.
	ResetPassword(ctx context.Context, token, password string) error
	Profile(ctx context.Context, userID string) (*domain.User, error)
}
