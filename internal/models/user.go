package models

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Role      Role      `json:"role" yaml:"role"`
	Password  string    `json:"-" yaml:"-"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

type SignUpRequest struct {
	Name            string `json:"name" validate:"min=3"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	Role            Role   `json:"role" validate:"oneof=USER ADMIN"`
}

// ErrorResponse is the body the API sends along with a non-2xx status.
type ErrorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error,omitempty"`
}
