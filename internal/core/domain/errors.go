package domain

import "errors"

var (
	// ErrMalformedID is returned when an identifier is not a valid
	// 24-character hex ObjectID. Checked before any store lookup.
	ErrMalformedID = errors.New("malformed identifier")

	ErrUserNotFound    = errors.New("user not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")

	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountNotConfirmed = errors.New("account not confirmed")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrForbidden           = errors.New("access forbidden")

	// Collaborator-set invariant violations. These are distinct from
	// ErrForbidden: the actor is allowed to mutate the set, the mutation
	// itself is invalid.
	ErrCreatorCollaborator = errors.New("project creator cannot be a collaborator")
	ErrAlreadyCollaborator = errors.New("user is already a collaborator")

	// ErrConflict is returned when a versioned save lost against a
	// concurrent writer.
	ErrConflict = errors.New("resource version conflict")
)
