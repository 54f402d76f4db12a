package dto

import (
	"time"

	"github.com/noah-isme/edustream-api/internal/models"
)

// UserView is the public representation of an account.
type UserView struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Avatar    string          `json:"avatar"`
	Role      models.UserRole `json:"role"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewUserView strips provider identifiers from a user.
func NewUserView(u *models.User) UserView {
	return UserView{ID: u.ID, Email: u.Email, Name: u.Name, Avatar: u.Avatar, Role: u.Role, CreatedAt: u.CreatedAt}
}

// NewUserViews converts a list of users.
func NewUserViews(users []models.User) []UserView {
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, NewUserView(&users[i]))
	}
	return out
}

// TokenResponse is returned by refresh.
type TokenResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// ChangeRoleRequest updates a user's role.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student instructor admin"`
}

// GrantAdminRequest promotes or provisions an admin by email.
type GrantAdminRequest struct {
	Email string `json:"email" validate:"required,email"`
}
