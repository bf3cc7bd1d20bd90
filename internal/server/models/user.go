// Package models defines server-side rows that never leave the backend as is.
package models

import (
	"time"

	"github.com/dmitrijs2005/taskmark/internal/models"
)

// User is the stored account. PasswordHash is an encoded argon2id hash.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	DisplayName  string    `db:"display_name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Public strips the credentials.
func (u *User) Public() models.User {
	return models.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// UserPatch changes the profile or the password; nil fields are kept.
type UserPatch struct {
	DisplayName  *string
	PasswordHash *string
}
