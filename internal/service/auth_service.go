package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/repository"
	"github.com/melalfey/schoolos-admin-portal/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserSuspended      = errors.New("user suspended")
)

type AuthService struct {
	users  *repository.UserRepository
	tokens *security.TokenIssuer
	params security.Argon2Params
	log    zerolog.Logger
}

func NewAuthService(users *repository.UserRepository, tokens *security.TokenIssuer, params security.Argon2Params, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		params: params,
		log:    log,
	}
}

type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	account, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if !account.Active {
		return AuthResult{}, ErrUserSuspended
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(security.AccessClaims{
		UserID:     account.User.ID,
		Role:       string(account.User.Role),
		SuperAdmin: account.User.IsSuperAdmin,
		SchoolID:   account.User.SchoolID,
	})
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info().Str("user_id", account.User.ID).Msg("user signed in")
	return AuthResult{Token: token, User: account.User}, nil
}

// Authenticate resolves a bearer token to the account it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", security.ErrInvalidToken, err)
	}
	return user, nil
}

// Register adds an active account with a hashed password.
func (s *AuthService) Register(ctx context.Context, in models.UserInput) (models.User, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return models.User{}, fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	hash, err := security.HashPassword(in.Password, s.params)
	if err != nil {
		return models.User{}, err
	}

	return s.users.Create(ctx, repository.Account{
		User: models.User{
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      in.Role,
			SchoolID:  in.SchoolID,
		},
		PasswordHash: hash,
		Active:       true,
	})
}

func (s *AuthService) hash(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	return security.HashPassword(password, s.params)
}
