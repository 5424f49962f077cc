package domain

import "time"

// User models a registered account. PasswordHash and Token never leave the
// backend: the hash is authentication material and the token is the
// single-use confirmation / password-recovery secret (empty when unused).
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Confirmed    bool      `json:"confirmed"`
	Token        string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
