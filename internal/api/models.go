package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	DisplayName string `json:"display_name" validate:"max=100"`
	Password    string `json:"password"     validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
// The session token is returned exactly once; clients present it via the
// Authorization header or the session cookie set alongside this response.
type AuthResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse defines the profile representation returned to clients.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// UpdateProfileRequest defines the payload for profile updates.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

// ChangePasswordRequest defines the payload for the password change endpoint.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=12,max=72"`
}

// CreateScheduleRequest defines the payload for creating a schedule.
type CreateScheduleRequest struct {
	TermID uuid.UUID `json:"term_id" validate:"required"`
	Name   string    `json:"name"    validate:"required,max=100"`
}

// UpdateScheduleRequest defines the payload for renaming a schedule or
// toggling its draft flag. Omitted fields are left unchanged.
type UpdateScheduleRequest struct {
	Name  *string `json:"name,omitempty"  validate:"omitempty,min=1,max=100"`
	Draft *bool   `json:"draft,omitempty"`
}

// AddSectionRequest defines the payload for placing a section on a schedule.
type AddSectionRequest struct {
	SectionID uuid.UUID `json:"section_id" validate:"required"`
}

// CourseListResponse wraps a paged course listing.
type CourseListResponse struct {
	Courses []domain.Course `json:"courses"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ConflictsResponse reports the result of schedule validation.
type ConflictsResponse struct {
	Valid     bool              `json:"valid"`
	Conflicts []domain.Conflict `json:"conflicts"`
}

// ShareResponse returns a minted schedule share token.
type ShareResponse struct {
	Token string `json:"token"`
}

// userToResponse converts a domain.User to its client representation.
func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}
