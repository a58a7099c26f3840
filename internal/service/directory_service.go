package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

// DirectoryService manages schools and the people assigned to them.
type DirectoryService struct {
	schools *repository.SchoolRepository
	users   *repository.UserRepository
	auth    *AuthService
}

func NewDirectoryService(schools *repository.SchoolRepository, users *repository.UserRepository, auth *AuthService) *DirectoryService {
	return &DirectoryService{schools: schools, users: users, auth: auth}
}

func (s *DirectoryService) ListSchools(ctx context.Context) []models.School {
	return s.schools.List(ctx)
}

func (s *DirectoryService) GetSchool(ctx context.Context, id string) (models.School, error) {
	return s.schools.GetByID(ctx, id)
}

func (s *DirectoryService) CreateSchool(ctx context.Context, in models.SchoolInput) (models.School, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Domain = strings.TrimSpace(in.Domain)
	if in.Name == "" || in.Domain == "" {
		return models.School{}, fmt.Errorf("%w: name and domain required", ErrInvalidInput)
	}
	return s.schools.Create(ctx, in), nil
}

func (s *DirectoryService) UpdateSchool(ctx context.Context, id string, in models.SchoolInput) (models.School, error) {
	return s.schools.Update(ctx, id, in)
}

func (s *DirectoryService) DeleteSchool(ctx context.Context, id string) error {
	return s.schools.Delete(ctx, id)
}

func (s *DirectoryService) SchoolAdmins(ctx context.Context, id string) ([]models.User, error) {
	if _, err := s.schools.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.users.List(ctx, repository.UserFilter{Role: models.RoleSchoolAdmin, SchoolID: id}), nil
}

// AssignAdmin makes the account registered under email an administrator of
// the school.
func (s *DirectoryService) AssignAdmin(ctx context.Context, schoolID, email string) (models.User, error) {
	if _, err := s.schools.GetByID(ctx, schoolID); err != nil {
		return models.User{}, err
	}
	account, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if account.User.IsSuperAdmin {
		return models.User{}, fmt.Errorf("%w: super admins cannot be assigned to a school", ErrInvalidInput)
	}
	return s.users.Update(ctx, account.User.ID, models.UserInput{Role: models.RoleSchoolAdmin, SchoolID: schoolID}, "")
}

// RemoveAdmin demotes a school administrator to teacher within the same
// school.
func (s *DirectoryService) RemoveAdmin(ctx context.Context, schoolID, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleSchoolAdmin || user.SchoolID != schoolID {
		return repository.ErrUserNotFound
	}
	_, err = s.users.Update(ctx, userID, models.UserInput{Role: models.RoleTeacher}, "")
	return err
}

// ListUsers returns users visible to actor: everyone for super admins, the
// actor's school otherwise.
func (s *DirectoryService) ListUsers(ctx context.Context, actor models.User, role models.Role) []models.User {
	filter := repository.UserFilter{Role: role}
	if !actor.IsSuperAdmin {
		filter.SchoolID = actor.SchoolID
	}
	return s.users.List(ctx, filter)
}

func (s *DirectoryService) CreateUser(ctx context.Context, actor models.User, in models.UserInput) (models.User, error) {
	if !actor.IsSuperAdmin {
		if in.Role == models.RoleSuperAdmin {
			return models.User{}, ErrForbidden
		}
		in.SchoolID = actor.SchoolID
	}
	return s.auth.Register(ctx, in)
}

func (s *DirectoryService) UpdateUser(ctx context.Context, actor models.User, id string, in models.UserInput) (models.User, error) {
	if err := s.authorizeUser(ctx, actor, id); err != nil {
		return models.User{}, err
	}
	if !actor.IsSuperAdmin && (in.Role == models.RoleSuperAdmin || in.SchoolID != "") {
		return models.User{}, ErrForbidden
	}
	if in.Role != "" && !in.Role.Valid() {
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}
	hash, err := s.auth.hash(in.Password)
	if err != nil {
		return models.User{}, err
	}
	return s.users.Update(ctx, id, in, hash)
}

func (s *DirectoryService) DeleteUser(ctx context.Context, actor models.User, id string) error {
	if err := s.authorizeUser(ctx, actor, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

func (s *DirectoryService) authorizeUser(ctx context.Context, actor models.User, id string) error {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if actor.IsSuperAdmin {
		return nil
	}
	if target.SchoolID != actor.SchoolID || target.IsSuperAdmin {
		return ErrForbidden
	}
	return nil
}
