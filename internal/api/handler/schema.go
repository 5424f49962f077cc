package handler

import (
	"time"

	"github.com/uptask/project-system/internal/core/domain"
	"github.com/uptask/project-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Account requests
// ---------------------------------------------------------------------------

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// ---------------------------------------------------------------------------
// Project requests
// ---------------------------------------------------------------------------

type projectRequest struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Client      string    `json:"client" validate:"required"`
	DueDate     time.Time `json:"due_date"`
}

// projectUpdateRequest is a partial edit; omitted fields keep the stored
// value. Version, when present, enables the concurrent-edit check.
type projectUpdateRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Client      string    `json:"client"`
	DueDate     time.Time `json:"due_date"`
	Version     int64     `json:"version"`
}

type collaboratorEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type removeCollaboratorRequest struct {
	UserID string `json:"user" validate:"required"`
}

type projectDetailResponse struct {
	Project       *domain.Project             `json:"project"`
	Tasks         []ports.TaskView            `json:"tasks"`
	Collaborators []ports.CollaboratorProfile `json:"collaborators"`
}

// ---------------------------------------------------------------------------
// Task requests
// ---------------------------------------------------------------------------

type taskRequest struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     time.Time `json:"due_date"`
	ProjectID   string    `json:"project" validate:"required"`
}

type taskUpdateRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     time.Time `json:"due_date"`
	Version     int64     `json:"version"`
}
