package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account known to the auth service.
type User struct {
	// ID is the unique identifier for the user (UUID format). It is the uid used in store paths.
	ID string

	// DisplayName is the name shown in the app.
	DisplayName string

	// Email is the user's email address (unique).
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// EmailVerified is set once the user follows the verification link.
	EmailVerified bool

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last account change.
	UpdatedAt int64
}

// ProviderPassword identifies accounts whose credential is an email and password.
const ProviderPassword = "password"

// NewUser creates an unverified password account with a fresh ID.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.NewString(),
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
