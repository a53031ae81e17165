package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/knotcraft/Pre-production/internal/auth"
	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/docstore/memory"
	"github.com/knotcraft/Pre-production/internal/middleware"
	"github.com/knotcraft/Pre-production/internal/storage/sqlite"
	"github.com/knotcraft/Pre-production/pkg/api"
)

type testEnv struct {
	url   string
	docs  *memory.Store
	users *sqlite.SQLiteStore
	jwt   *auth.JWTManager
}

// setupTestServer serves both services over a memory document store and a
// temporary account database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	users, err := sqlite.New(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	docs := memory.New()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	docPath, docHandler := NewDocStoreServiceHandler(
		NewDocStoreService(docs, nil),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager)),
	)
	authPath, authHandler := NewAuthServiceHandler(
		NewAuthService(auth.NewPasswordAuthenticator(users).WithCost(bcrypt.MinCost), users, jwtManager, nil),
		connect.WithInterceptors(middleware.OptionalAuth(jwtManager)),
	)

	mux := http.NewServeMux()
	mux.Handle(docPath, docHandler)
	mux.Handle(authPath, authHandler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		docs.Close()
		users.Close()
	})
	return &testEnv{url: server.URL, docs: docs, users: users, jwt: jwtManager}
}

func (e *testEnv) client(procedure, token string) *connect.Client[structpb.Struct, structpb.Struct] {
	return connect.NewClient[structpb.Struct, structpb.Struct](http.DefaultClient, e.url+procedure,
		connect.WithInterceptors(middleware.BearerToken(func() string { return token })))
}

func (e *testEnv) valueClient(procedure, token string) *connect.Client[structpb.Struct, structpb.Value] {
	return connect.NewClient[structpb.Struct, structpb.Value](http.DefaultClient, e.url+procedure,
		connect.WithInterceptors(middleware.BearerToken(func() string { return token })))
}

func msg(t *testing.T, fields map[string]any) *connect.Request[structpb.Struct] {
	t.Helper()
	s, err := api.NewStruct(fields)
	if err != nil {
		t.Fatal(err)
	}
	return connect.NewRequest(s)
}

// register signs a user up and returns the uid and session token.
func (e *testEnv) register(t *testing.T, email string) (string, string) {
	t.Helper()
	resp, err := e.client(api.AuthRegisterProcedure, "").CallUnary(context.Background(), msg(t, map[string]any{
		api.FieldEmail: email, api.FieldPassword: "long enough", api.FieldDisplayName: "Ana",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return api.GetString(api.GetStruct(resp.Msg, api.FieldUser), api.FieldID), api.GetString(resp.Msg, api.FieldToken)
}

func TestRegisterLoginAndVerify(t *testing.T) {
	ctx := context.Background()
	env := setupTestServer(t)
	uid, token := env.register(t, "ana@example.com")

	current, err := env.client(api.AuthGetCurrentUserProcedure, token).CallUnary(ctx, msg(t, nil))
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	user := api.GetStruct(current.Msg, api.FieldUser)
	if api.GetString(user, api.FieldID) != uid || api.GetBool(user, api.FieldEmailVerified) {
		t.Errorf("current user = %v", user)
	}
	if got := api.GetStrings(user, api.FieldProviders); len(got) != 1 || got[0] != "password" {
		t.Errorf("providers = %v, want [password]", got)
	}

	stored, _ := env.users.GetUserByID(ctx, uid)
	verification, err := env.jwt.GenerateVerification(stored)
	if err != nil {
		t.Fatal(err)
	}
	verified, err := env.client(api.AuthVerifyEmailProcedure, "").CallUnary(ctx, msg(t, map[string]any{api.FieldToken: verification}))
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	claims, err := env.jwt.Validate(api.GetString(verified.Msg, api.FieldToken))
	if err != nil || !claims.EmailVerified {
		t.Fatalf("token after verification = %+v, %v", claims, err)
	}

	login, err := env.client(api.AuthLoginProcedure, "").CallUnary(ctx, msg(t, map[string]any{
		api.FieldEmail: "ana@example.com", api.FieldPassword: "long enough",
	}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !api.GetBool(api.GetStruct(login.Msg, api.FieldUser), api.FieldEmailVerified) {
		t.Error("login after verification reports unverified email")
	}
}

func TestAuthErrors(t *testing.T) {
	ctx := context.Background()
	env := setupTestServer(t)
	_, token := env.register(t, "ana@example.com")

	tests := []struct {
		name      string
		procedure string
		token     string
		fields    map[string]any
		want      connect.Code
	}{
		{
			name:      "duplicate email",
			procedure: api.AuthRegisterProcedure,
			fields:    map[string]any{api.FieldEmail: "ana@example.com", api.FieldPassword: "long enough"},
			want:      connect.CodeAlreadyExists,
		},
		{
			name:      "short password",
			procedure: api.AuthRegisterProcedure,
			fields:    map[string]any{api.FieldEmail: "ben@example.com", api.FieldPassword: "short"},
			want:      connect.CodeInvalidArgument,
		},
		{
			name:      "wrong password",
			procedure: api.AuthLoginProcedure,
			fields:    map[string]any{api.FieldEmail: "ana@example.com", api.FieldPassword: "wrong password"},
			want:      connect.CodeUnauthenticated,
		},
		{
			name:      "current user without token",
			procedure: api.AuthGetCurrentUserProcedure,
			want:      connect.CodeUnauthenticated,
		},
		{
			name:      "session token used for verification",
			procedure: api.AuthVerifyEmailProcedure,
			fields:    map[string]any{api.FieldToken: token},
			want:      connect.CodeInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.client(tt.procedure, tt.token).CallUnary(ctx, msg(t, tt.fields))
			if got := connect.CodeOf(err); got != tt.want {
				t.Errorf("code = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestDocStoreOwnership(t *testing.T) {
	ctx := context.Background()
	env := setupTestServer(t)
	uid, token := env.register(t, "ana@example.com")
	otherUID, _ := env.register(t, "ben@example.com")
	_ = env.docs.Write(ctx, docstore.VendorsPath("vendor-1"), map[string]any{"name": "Bloom"})

	write := env.client(api.DocStoreWriteProcedure, token)
	read := env.valueClient(api.DocStoreReadProcedure, token)

	tests := []struct {
		name   string
		call   func() error
		denied bool
	}{
		{
			name: "write own task",
			call: func() error {
				_, err := write.CallUnary(ctx, msg(t, map[string]any{
					api.FieldPath:  docstore.UserPath(uid, "tasks", "t1"),
					api.FieldValue: map[string]any{"title": "Book venue", "dueDate": "2026-05-01"},
				}))
				return err
			},
		},
		{
			name: "write someone else's profile",
			call: func() error {
				_, err := write.CallUnary(ctx, msg(t, map[string]any{
					api.FieldPath:  docstore.UserPath(otherUID, "profile"),
					api.FieldValue: map[string]any{"name": "Mallory"},
				}))
				return err
			},
			denied: true,
		},
		{
			name: "read catalog",
			call: func() error {
				_, err := read.CallUnary(ctx, msg(t, map[string]any{api.FieldPath: docstore.VendorsPath()}))
				return err
			},
		},
		{
			name: "write catalog",
			call: func() error {
				_, err := write.CallUnary(ctx, msg(t, map[string]any{
					api.FieldPath: docstore.VendorsPath("vendor-1", "rating"), api.FieldValue: 5,
				}))
				return err
			},
			denied: true,
		},
		{
			name: "read root",
			call: func() error {
				_, err := read.CallUnary(ctx, msg(t, map[string]any{api.FieldPath: ""}))
				return err
			},
			denied: true,
		},
		{
			name: "batch with one foreign path",
			call: func() error {
				_, err := env.client(api.DocStoreBatchedMergeProcedure, token).CallUnary(ctx, msg(t, map[string]any{
					api.FieldUpdates: map[string]any{
						docstore.NotificationsPath(uid, "n1", "read"):      true,
						docstore.NotificationsPath(otherUID, "n1", "read"): true,
					},
				}))
				return err
			},
			denied: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if tt.denied {
				if connect.CodeOf(err) != connect.CodePermissionDenied {
					t.Fatalf("err = %v, want permission denied", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("call failed: %v", err)
			}
		})
	}

	if snap, _ := env.docs.Read(ctx, docstore.NotificationsPath(uid)); snap != nil {
		t.Errorf("denied batch wrote %v", snap)
	}
	resp, err := read.CallUnary(ctx, msg(t, map[string]any{api.FieldPath: docstore.UserPath(uid, "tasks", "t1", "title")}))
	if err != nil || api.FromValue(resp.Msg) != "Book venue" {
		t.Errorf("read back = %v, %v", resp, err)
	}

	_, err = env.client(api.DocStoreReadProcedure, "").CallUnary(ctx, msg(t, map[string]any{api.FieldPath: docstore.UserPath(uid)}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("anonymous read err = %v, want unauthenticated", err)
	}
}

func TestDocStoreSubscribeStreamsChanges(t *testing.T) {
	env := setupTestServer(t)
	uid, token := env.register(t, "ana@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := env.valueClient(api.DocStoreSubscribeProcedure, token).CallServerStream(ctx,
		msg(t, map[string]any{api.FieldPath: docstore.UserPath(uid, "tasks")}))
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer stream.Close()

	if !stream.Receive() {
		t.Fatalf("no initial value: %v", stream.Err())
	}
	if got := api.FromValue(stream.Msg()); got != nil {
		t.Fatalf("initial value = %v, want null", got)
	}

	if err := env.docs.Write(ctx, docstore.UserPath(uid, "tasks", "t1"), map[string]any{"title": "Book venue"}); err != nil {
		t.Fatal(err)
	}
	if !stream.Receive() {
		t.Fatalf("no update: %v", stream.Err())
	}
	if got := docstore.Lookup(api.FromValue(stream.Msg()), "t1/title"); got != "Book venue" {
		t.Errorf("pushed title = %v", got)
	}
}
