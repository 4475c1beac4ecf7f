package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Password hashes never leave the auth
// package; the json tag keeps them out of any serialized response.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
