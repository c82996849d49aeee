package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/yuwei031/SubForge/internal/app/model"
	"github.com/yuwei031/SubForge/internal/app/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike so
	// login failures leak nothing.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrPasswordMismatch signals that password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrRegistrationDisabled signals that self-service signup is switched off.
	ErrRegistrationDisabled = errors.New("registration is disabled")
	// ErrTokenRevoked signals a token invalidated by logout.
	ErrTokenRevoked = errors.New("token has been revoked")
)

// AuthClaims are the JWT claims carried by a dashboard session token.
type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService owns accounts, credentials and session tokens.
type AuthService interface {
	Register(ctx context.Context, email, password, confirm string) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, *model.User, error)
	Logout(ctx context.Context, claims *AuthClaims) error
	ChangePassword(ctx context.Context, userID, current, password, confirm string) error
	ParseToken(ctx context.Context, token string) (*AuthClaims, error)
	RegistrationEnabled(ctx context.Context) (bool, error)
}

// AuthDeps bundles collaborators for the auth service. Redis backs the
// logout blacklist; a nil client disables revocation checks.
type AuthDeps struct {
	Users    repository.UserRepository
	Settings repository.SettingRepository
	Redis    *redis.Client
	Secret   []byte
	TokenTTL time.Duration
}

type authService struct {
	users    repository.UserRepository
	settings repository.SettingRepository
	redis    *redis.Client
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthService returns the account/session implementation.
func NewAuthService(deps AuthDeps) AuthService {
	ttl := deps.TokenTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &authService{
		users:    deps.Users,
		settings: deps.Settings,
		redis:    deps.Redis,
		secret:   deps.Secret,
		tokenTTL: ttl,
	}
}

func (s *authService) Register(ctx context.Context, email, password, confirm string) (*model.User, error) {
	enabled, err := s.RegistrationEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrRegistrationDisabled
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// The very first account becomes the admin.
	role := model.RoleUser
	existing, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(existing) == 0 {
		role = model.RoleAdmin
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := AuthClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

// Logout blacklists the token id until its natural expiry.
func (s *authService) Logout(ctx context.Context, claims *AuthClaims) error {
	if s.redis == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, revocationKey(claims.ID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID, current, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ParseToken validates signature, expiry and the revocation blacklist.
func (s *authService) ParseToken(ctx context.Context, token string) (*AuthClaims, error) {
	var claims AuthClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("parse token: token is not valid")
	}

	if s.redis != nil && claims.ID != "" {
		revoked, err := s.redis.Exists(ctx, revocationKey(claims.ID)).Result()
		if err == nil && revoked > 0 {
			return nil, ErrTokenRevoked
		}
	}

	return &claims, nil
}

func (s *authService) RegistrationEnabled(ctx context.Context) (bool, error) {
	value, err := s.settings.Get(ctx, model.SettingRegistrationEnabled)
	if err != nil {
		if errors.Is(err, repository.ErrSettingNotFound) {
			// Missing row defaults to open registration.
			return true, nil
		}
		return false, fmt.Errorf("load setting: %w", err)
	}
	return value == "true", nil
}

func revocationKey(jti string) string {
	return "auth:revoked:" + jti
}
