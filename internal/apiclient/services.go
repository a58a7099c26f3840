package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/melalfey/schoolos-admin-portal/internal/models"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type AuthService struct {
	gw *Gateway
}

func NewAuthService(gw *Gateway) *AuthService {
	return &AuthService{gw: gw}
}

// Login exchanges credentials for a token. It does not touch the session;
// the caller hands the result to session.Store.Login.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	return Call[LoginResult](ctx, s.gw, Request{
		Method:    http.MethodPost,
		Path:      "/auth/login",
		Body:      creds,
		Anonymous: true,
	})
}

func (s *AuthService) Me(ctx context.Context) (models.User, error) {
	return Call[models.User](ctx, s.gw, Request{Path: "/auth/me"})
}

type SchoolService struct {
	gw *Gateway
}

func NewSchoolService(gw *Gateway) *SchoolService {
	return &SchoolService{gw: gw}
}

func (s *SchoolService) List(ctx context.Context) ([]models.School, error) {
	return Call[[]models.School](ctx, s.gw, Request{Path: "/schools"})
}

func (s *SchoolService) Get(ctx context.Context, id string) (models.School, error) {
	return Call[models.School](ctx, s.gw, Request{Path: "/schools/" + url.PathEscape(id)})
}

func (s *SchoolService) Create(ctx context.Context, in models.SchoolInput) (models.School, error) {
	return Call[models.School](ctx, s.gw, Request{Method: http.MethodPost, Path: "/schools", Body: in})
}

func (s *SchoolService) Update(ctx context.Context, id string, in models.SchoolInput) (models.School, error) {
	return Call[models.School](ctx, s.gw, Request{Method: http.MethodPut, Path: "/schools/" + url.PathEscape(id), Body: in})
}

func (s *SchoolService) Delete(ctx context.Context, id string) error {
	_, err := s.gw.Do(ctx, Request{Method: http.MethodDelete, Path: "/schools/" + url.PathEscape(id)})
	return err
}

func (s *SchoolService) Admins(ctx context.Context, id string) ([]models.User, error) {
	return Call[[]models.User](ctx, s.gw, Request{Path: "/schools/" + url.PathEscape(id) + "/admins"})
}

func (s *SchoolService) AddAdmin(ctx context.Context, id, email string) (models.User, error) {
	return Call[models.User](ctx, s.gw, Request{
		Method: http.MethodPost,
		Path:   "/schools/" + url.PathEscape(id) + "/admins",
		Body:   map[string]string{"email": email},
	})
}

func (s *SchoolService) RemoveAdmin(ctx context.Context, id, userID string) error {
	_, err := s.gw.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   "/schools/" + url.PathEscape(id) + "/admins/" + url.PathEscape(userID),
	})
	return err
}

type UserService struct {
	gw *Gateway
}

func NewUserService(gw *Gateway) *UserService {
	return &UserService{gw: gw}
}

// List returns users, optionally only those with role.
func (s *UserService) List(ctx context.Context, role models.Role) ([]models.User, error) {
	req := Request{Path: "/users"}
	if role != "" {
		req.Query = url.Values{"role": {string(role)}}
	}
	return Call[[]models.User](ctx, s.gw, req)
}

func (s *UserService) Create(ctx context.Context, in models.UserInput) (models.User, error) {
	return Call[models.User](ctx, s.gw, Request{Method: http.MethodPost, Path: "/users", Body: in})
}

func (s *UserService) Update(ctx context.Context, id string, in models.UserInput) (models.User, error) {
	return Call[models.User](ctx, s.gw, Request{Method: http.MethodPut, Path: "/users/" + url.PathEscape(id), Body: in})
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	_, err := s.gw.Do(ctx, Request{Method: http.MethodDelete, Path: "/users/" + url.PathEscape(id)})
	return err
}
