package models

import "time"

type School struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// SchoolInput is the create/update payload for a school.
type SchoolInput struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Address  string `json:"address,omitempty"`
	IsActive *bool  `json:"isActive,omitempty"`
}

// UserInput is the create/update payload for staff, students and admins.
type UserInput struct {
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      Role   `json:"role,omitempty"`
	SchoolID  string `json:"schoolId,omitempty"`
}
