package models

import (
	"errors"
	"strings"
)

type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleSchoolAdmin Role = "school_admin"
	RoleTeacher     Role = "teacher"
	RoleStudent     Role = "student"
	RoleParent      Role = "parent"
)

var ErrInvalidUser = errors.New("invalid user profile")

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleSchoolAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// User is the profile the backend returns alongside a bearer token.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Role         Role   `json:"role"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
	Avatar       string `json:"avatar,omitempty"`
	SchoolID     string `json:"schoolId,omitempty"`
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return errors.Join(ErrInvalidUser, errors.New("missing id"))
	}
	if !u.Role.Valid() {
		return errors.Join(ErrInvalidUser, errors.New("unknown role "+string(u.Role)))
	}
	return nil
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// HasRole reports whether the user's role is in roles.
func (u User) HasRole(roles ...Role) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}
