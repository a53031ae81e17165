package service

import (
	"errors"
	"fmt"

	"github.com/knotcraft/Pre-production/internal/docstore"
)

// ErrPermissionDenied is returned for paths outside the caller's data.
var ErrPermissionDenied = errors.New("permission denied")

// canRead reports whether uid may read path: its own user and notification
// subtrees, and the shared vendor catalog.
func canRead(uid, path string) bool {
	return owns(uid, path) || docstore.IsWithin(path, docstore.VendorsPath())
}

// canWrite reports whether uid may write path. The vendor catalog is read-only.
func canWrite(uid, path string) bool {
	return owns(uid, path)
}

func owns(uid, path string) bool {
	if uid == "" {
		return false
	}
	return docstore.IsWithin(path, docstore.UserPath(uid)) ||
		docstore.IsWithin(path, docstore.NotificationsPath(uid))
}

// authorize checks every path against rule.
func authorize(uid string, rule func(uid, path string) bool, paths ...string) error {
	for _, p := range paths {
		if err := docstore.ValidatePath(p); err != nil {
			return err
		}
		if docstore.Clean(p) == "" || !rule(uid, p) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, p)
		}
	}
	return nil
}
