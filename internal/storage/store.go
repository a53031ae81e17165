// Package storage provides abstractions for the relational data kept beside the
// document tree: accounts on the server and the local scan marker on the client.
package storage

import (
	"context"

	"github.com/knotcraft/Pre-production/internal/models"
)

// UserStore defines account storage operations for the auth service.
type UserStore interface {
	// CreateUser persists a new account. Email must be unique.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns nil and no error when no account uses email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil and no error when the account does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// SetEmailVerified marks the account's email as verified.
	SetEmailVerified(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// MarkerStore keeps small device-local string values, such as the date of the last
// due-date reminder scan. Values never leave the device.
type MarkerStore interface {
	// GetMarker returns "" when the marker has never been set.
	GetMarker(ctx context.Context, key string) (string, error)

	// SetMarker stores value under key, replacing any previous value.
	SetMarker(ctx context.Context, key, value string) error
}
