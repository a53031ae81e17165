package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/knotcraft/Pre-production/internal/middleware"
	"github.com/knotcraft/Pre-production/pkg/api"
)

// TokenStore persists the session token between runs.
type TokenStore interface {
	GetMarker(ctx context.Context, key string) (string, error)
	SetMarker(ctx context.Context, key, value string) error
}

// TokenKey is the TokenStore key holding the session token.
const TokenKey = "sessionToken"

// Session is a Provider backed by the auth service. It starts Unresolved and
// resolves once Refresh has asked the server about the stored token.
type Session struct {
	register *connect.Client[structpb.Struct, structpb.Struct]
	login    *connect.Client[structpb.Struct, structpb.Struct]
	verify   *connect.Client[structpb.Struct, structpb.Struct]
	resend   *connect.Client[structpb.Struct, structpb.Struct]
	current  *connect.Client[structpb.Struct, structpb.Struct]
	logout   *connect.Client[structpb.Struct, structpb.Struct]
	tokens   TokenStore
	logger   *slog.Logger
	watchers watchers

	mu    sync.Mutex
	state State
	token string
}

// Ensure Session implements Provider
var _ Provider = (*Session)(nil)

// NewSession creates a Session against the server at baseURL. tokens may be nil
// for a session that is not persisted.
func NewSession(httpClient connect.HTTPClient, baseURL string, tokens TokenStore, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{tokens: tokens, logger: logger}
	opts := connect.WithInterceptors(middleware.BearerToken(s.Token))
	client := func(procedure string) *connect.Client[structpb.Struct, structpb.Struct] {
		return connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+procedure, opts)
	}
	s.register = client(api.AuthRegisterProcedure)
	s.login = client(api.AuthLoginProcedure)
	s.verify = client(api.AuthVerifyEmailProcedure)
	s.resend = client(api.AuthResendVerificationProcedure)
	s.current = client(api.AuthGetCurrentUserProcedure)
	s.logout = client(api.AuthLogoutProcedure)
	return s
}

// Current returns the latest known state.
func (s *Session) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Watch registers fn for state changes.
func (s *Session) Watch(fn func(State)) func() {
	return s.watchers.add(fn)
}

// Token returns the current session token, or "".
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Refresh resolves the state from the stored token. A missing or rejected token
// resolves to SignedOut; a transport failure leaves the state unchanged.
func (s *Session) Refresh(ctx context.Context) (State, error) {
	if s.Token() == "" && s.tokens != nil {
		token, err := s.tokens.GetMarker(ctx, TokenKey)
		if err != nil {
			return s.Current(), fmt.Errorf("failed to load session token: %w", err)
		}
		s.mu.Lock()
		s.token = token
		s.mu.Unlock()
	}
	if s.Token() == "" {
		return s.set(State{Status: SignedOut}), nil
	}

	resp, err := s.current.CallUnary(ctx, connect.NewRequest(&structpb.Struct{}))
	if err != nil {
		if connect.CodeOf(err) == connect.CodeUnauthenticated {
			s.logger.Info("stored session rejected", "error", err)
			s.clearToken(ctx)
			return s.set(State{Status: SignedOut}), nil
		}
		return s.Current(), fmt.Errorf("failed to resolve session: %w", err)
	}
	return s.set(stateFromUser(api.GetStruct(resp.Msg, api.FieldUser))), nil
}

// SignUp registers a password account and signs in as it.
func (s *Session) SignUp(ctx context.Context, email, password, displayName string) (State, error) {
	req, err := api.NewStruct(map[string]any{
		api.FieldEmail:       email,
		api.FieldPassword:    password,
		api.FieldDisplayName: displayName,
	})
	if err != nil {
		return s.Current(), err
	}
	resp, err := s.register.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return s.Current(), fmt.Errorf("failed to sign up: %w", err)
	}
	return s.accept(ctx, resp.Msg)
}

// SignIn signs in with email and password.
func (s *Session) SignIn(ctx context.Context, email, password string) (State, error) {
	req, err := api.NewStruct(map[string]any{api.FieldEmail: email, api.FieldPassword: password})
	if err != nil {
		return s.Current(), err
	}
	resp, err := s.login.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return s.Current(), fmt.Errorf("failed to sign in: %w", err)
	}
	return s.accept(ctx, resp.Msg)
}

// VerifyEmail consumes a verification token from the verification email.
func (s *Session) VerifyEmail(ctx context.Context, token string) (State, error) {
	req, err := api.NewStruct(map[string]any{api.FieldToken: token})
	if err != nil {
		return s.Current(), err
	}
	resp, err := s.verify.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return s.Current(), fmt.Errorf("failed to verify email: %w", err)
	}
	return s.accept(ctx, resp.Msg)
}

// ResendVerification asks the server to issue a new verification email.
func (s *Session) ResendVerification(ctx context.Context) error {
	if _, err := s.resend.CallUnary(ctx, connect.NewRequest(&structpb.Struct{})); err != nil {
		return fmt.Errorf("failed to resend verification: %w", err)
	}
	return nil
}

// SignOut discards the session. The local state is cleared even if the server
// cannot be reached.
func (s *Session) SignOut(ctx context.Context) State {
	if s.Token() != "" {
		if _, err := s.logout.CallUnary(ctx, connect.NewRequest(&structpb.Struct{})); err != nil {
			s.logger.Warn("logout request failed", "error", err)
		}
	}
	s.clearToken(ctx)
	return s.set(State{Status: SignedOut})
}

// accept stores the token from a {token, user} response and adopts its user.
func (s *Session) accept(ctx context.Context, msg *structpb.Struct) (State, error) {
	token := api.GetString(msg, api.FieldToken)
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	if s.tokens != nil {
		if err := s.tokens.SetMarker(ctx, TokenKey, token); err != nil {
			s.logger.Warn("failed to persist session token", "error", err)
		}
	}
	return s.set(stateFromUser(api.GetStruct(msg, api.FieldUser))), nil
}

func (s *Session) clearToken(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	if s.tokens != nil {
		if err := s.tokens.SetMarker(ctx, TokenKey, ""); err != nil {
			s.logger.Warn("failed to clear session token", "error", err)
		}
	}
}

func (s *Session) set(st State) State {
	s.mu.Lock()
	changed := !s.state.equal(st)
	s.state = st
	s.mu.Unlock()
	if changed {
		s.watchers.notify(st)
	}
	return st
}

func stateFromUser(user *structpb.Struct) State {
	return State{
		Status:        SignedIn,
		UID:           api.GetString(user, api.FieldID),
		Email:         api.GetString(user, api.FieldEmail),
		DisplayName:   api.GetString(user, api.FieldDisplayName),
		ProviderIDs:   api.GetStrings(user, api.FieldProviders),
		EmailVerified: api.GetBool(user, api.FieldEmailVerified),
	}
}
