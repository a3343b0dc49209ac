// Package api holds the JSON request and response types of the HTTP
// surface, shared between the handlers and the service's clients.
package api

import "time"

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ValidationErrorResponse carries per-field validation failures.
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserSummary `json:"user"`
}

type UserSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"  validate:"required,oneof=ADMIN MANAGER STAFF"`
}

type InviteSummary struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// InviteResponse returns the raw invite token exactly once, at mint
// time. Only a fingerprint is retained server side.
type InviteResponse struct {
	Invite    InviteSummary `json:"invite"`
	Token     string        `json:"token"`
	InviteURL string        `json:"inviteUrl"`
}

type RegisterRequest struct {
	Token    string `json:"token"    validate:"required"`
	Name     string `json:"name"     validate:"required,min=1,max=120"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type RegisterResponse struct {
	User UserSummary `json:"user"`
}

type ListUsersResponse struct {
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int64         `json:"total"`
	Items []UserSummary `json:"items"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN MANAGER STAFF"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

type SeedAdminRequest struct {
	Name     string `json:"name"     validate:"required,min=1,max=120"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type CreateProjectRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *string `json:"status,omitempty"      validate:"omitempty,oneof=ACTIVE ARCHIVED"`
}

type ProjectSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Creator     Creator   `json:"creator"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Creator struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ListProjectsResponse struct {
	Items []ProjectSummary `json:"items"`
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime,omitempty"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}
