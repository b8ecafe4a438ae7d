package auth

import (
	"github.com/gbmoto/magazzino-backend/internal/users"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
)

// LoginRequest carries operator credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the token pair plus the authenticated user.
type LoginResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         users.UserDTO `json:"user"`
}

// RefreshRequest rotates a session. The access token may be expired; only
// its signature and session id are inspected.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse returns the replacement token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterRequest creates a new operator account. Admin only.
type RegisterRequest struct {
	Username string         `json:"username" validate:"required,min=3"`
	Password string         `json:"password" validate:"required,min=8"`
	Role     enums.UserRole `json:"role" validate:"required"`
}
