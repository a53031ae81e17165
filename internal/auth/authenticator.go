package auth

import (
	"context"

	"github.com/knotcraft/Pre-production/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// The auth service depends on it rather than on a particular credential type.
type Authenticator interface {
	// Register creates a new, unverified account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credential and returns the account.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential meets the implementation's requirements.
	ValidateCredential(credential string) error

	// Providers lists the provider ids an account created by this authenticator carries.
	Providers() []string
}
