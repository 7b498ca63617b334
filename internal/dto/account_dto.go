package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string  `json:"email"    validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Role     string  `json:"role"     validate:"omitempty,oneof=admin preparer frontdesk"`
	Username *string `json:"username" validate:"omitempty,min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// AccountResponse never carries the password hash.
type AccountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  *string   `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Account AccountResponse `json:"account"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
