package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
	"github.com/sirpyerre/payroll-api/internal/core/ports"
)

// MinPasswordLength is enforced on every account the service creates.
const MinPasswordLength = 8

// AuthService manages API operator accounts and issues HS256 tokens whose
// role claim the RBAC middleware checks.
type AuthService struct {
	repo      ports.AuthRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(repo ports.AuthRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// SignUp is the self-service path and always yields a viewer.
func (s *AuthService) SignUp(ctx context.Context, in ports.NewUserInput) (*domain.User, error) {
	in.Role = domain.RoleViewer
	return s.createAccount(ctx, in)
}

func (s *AuthService) CreateUser(ctx context.Context, in ports.NewUserInput) (*domain.User, error) {
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if !domain.IsKnownRole(in.Role) {
		return nil, fmt.Errorf("role %q: must be %s or %s: %w", in.Role, domain.RoleAdmin, domain.RoleViewer, domain.ErrInvalidData)
	}
	return s.createAccount(ctx, in)
}

func (s *AuthService) EnsureAdmin(ctx context.Context, in ports.NewUserInput) (bool, error) {
	email := normalizeEmail(in.Email)
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			return false, fmt.Errorf("bootstrap admin %s exists with role %q", email, existing.Role)
		}
		return false, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return false, err
	}

	in.Role = domain.RoleAdmin
	if _, err := s.createAccount(ctx, in); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		// Unknown emails and wrong passwords are indistinguishable to callers.
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	expiresAt := s.now().Add(s.tokenTTL)
	token, err := s.signToken(user, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &ports.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) createAccount(ctx context.Context, in ports.NewUserInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	switch {
	case username == "":
		return nil, fmt.Errorf("username is required: %w", domain.ErrInvalidData)
	case email == "":
		return nil, fmt.Errorf("email is required: %w", domain.ErrInvalidData)
	case len(in.Password) < MinPasswordLength:
		return nil, fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, domain.ErrInvalidData)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	return s.repo.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *AuthService) signToken(user *domain.User, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"iat":      s.now().Unix(),
		"exp":      expiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
