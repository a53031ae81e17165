package server

import (
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/knotcraft/Pre-production/internal/auth"
	"github.com/knotcraft/Pre-production/internal/docstore"
	storagesqlite "github.com/knotcraft/Pre-production/internal/storage/sqlite"
)

// TestServer is a running server for tests in other packages.
type TestServer struct {
	URL   string
	Users *storagesqlite.SQLiteStore
	JWT   *auth.JWTManager
}

// StartTest serves docs with a temporary account database until t finishes.
func StartTest(t testing.TB, docs docstore.Store) *TestServer {
	t.Helper()

	users, err := storagesqlite.New(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("failed to create user store: %v", err)
	}
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	srv := httptest.NewServer(NewHandler(Options{
		Docs:          docs,
		Users:         users,
		JWT:           jwtManager,
		Authenticator: auth.NewPasswordAuthenticator(users).WithCost(bcrypt.MinCost),
	}))
	t.Cleanup(func() {
		srv.Close()
		users.Close()
	})
	return &TestServer{URL: srv.URL, Users: users, JWT: jwtManager}
}
