package ports

import (
	"context"
	"time"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

// NewUserInput carries the fields of an account being created. Role is
// ignored by SignUp.
type NewUserInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	// SignUp creates a viewer account. It never grants admin.
	SignUp(ctx context.Context, in NewUserInput) (*domain.User, error)
	// CreateUser creates an account with the requested role. Callers must
	// already be authorised as admin.
	CreateUser(ctx context.Context, in NewUserInput) (*domain.User, error)
	// EnsureAdmin creates the bootstrap admin unless its email is taken.
	EnsureAdmin(ctx context.Context, in NewUserInput) (created bool, err error)
	Login(ctx context.Context, email, password string) (*Session, error)
}
