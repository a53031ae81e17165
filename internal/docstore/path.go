package docstore

import (
	"fmt"
	"strings"
)

// Root path segments used by the dashboard.
const (
	UsersRoot         = "users"
	NotificationsRoot = "notifications"
	VendorsRoot       = "vendors"
)

// Join builds a slash-delimited path from segments, skipping empty ones.
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

// Clean normalizes a path: leading/trailing slashes and empty segments are dropped.
func Clean(path string) string {
	return Join(strings.Split(path, "/")...)
}

// Segments splits a cleaned path into its segments. The root path has none.
func Segments(path string) []string {
	path = Clean(path)
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Parent returns the parent of path; the parent of a top-level key is the root.
func Parent(path string) string {
	path = Clean(path)
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// IsWithin reports whether path equals base or lies below it.
func IsWithin(path, base string) bool {
	path, base = Clean(path), Clean(base)
	if base == "" {
		return true
	}
	return path == base || strings.HasPrefix(path, base+"/")
}

// Overlaps reports whether one path is equal to, above, or below the other.
// A change at a affects a listener at b exactly when they overlap.
func Overlaps(a, b string) bool {
	return IsWithin(a, b) || IsWithin(b, a)
}

// ValidatePath rejects segments the store cannot address.
func ValidatePath(path string) error {
	for _, seg := range Segments(path) {
		if strings.ContainsAny(seg, ".#$[]") {
			return fmt.Errorf("%w: segment %q", ErrInvalidPath, seg)
		}
	}
	return nil
}

// UserPath addresses data owned by one user: users/{uid}/...
func UserPath(uid string, parts ...string) string {
	return Join(append([]string{UsersRoot, uid}, parts...)...)
}

// NotificationsPath addresses the notification inbox of one user: notifications/{uid}/...
func NotificationsPath(uid string, parts ...string) string {
	return Join(append([]string{NotificationsRoot, uid}, parts...)...)
}

// VendorsPath addresses the global vendor catalog.
func VendorsPath(parts ...string) string {
	return Join(append([]string{VendorsRoot}, parts...)...)
}
