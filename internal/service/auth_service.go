package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/knotcraft/Pre-production/internal/auth"
	"github.com/knotcraft/Pre-production/internal/middleware"
	"github.com/knotcraft/Pre-production/internal/models"
	"github.com/knotcraft/Pre-production/pkg/api"
)

// AccountStorage is the account lookup and update the auth service needs beyond
// what the authenticator does.
type AccountStorage interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetEmailVerified(ctx context.Context, id string) error
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	accounts      AccountStorage
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, accounts AccountStorage, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		accounts:      accounts,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// NewAuthServiceHandler builds the HTTP handler serving svc and returns the path to
// mount it on. Callers should install middleware.OptionalAuth so GetCurrentUser and
// ResendVerification can see the session.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(api.AuthRegisterProcedure, connect.NewUnaryHandler(api.AuthRegisterProcedure, svc.Register, opts...))
	mux.Handle(api.AuthLoginProcedure, connect.NewUnaryHandler(api.AuthLoginProcedure, svc.Login, opts...))
	mux.Handle(api.AuthVerifyEmailProcedure, connect.NewUnaryHandler(api.AuthVerifyEmailProcedure, svc.VerifyEmail, opts...))
	mux.Handle(api.AuthResendVerificationProcedure, connect.NewUnaryHandler(api.AuthResendVerificationProcedure, svc.ResendVerification, opts...))
	mux.Handle(api.AuthGetCurrentUserProcedure, connect.NewUnaryHandler(api.AuthGetCurrentUserProcedure, svc.GetCurrentUser, opts...))
	mux.Handle(api.AuthLogoutProcedure, connect.NewUnaryHandler(api.AuthLogoutProcedure, svc.Logout, opts...))
	return "/" + api.AuthServiceName + "/", mux
}

// Register creates a new user account and returns a session token. The account
// starts unverified; the verification token is logged for delivery.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	email := api.GetString(req.Msg, api.FieldEmail)
	s.logger.Info("Register request", "email", email)

	if email == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidEmail)
	}

	user, err := s.authenticator.Register(ctx, email, api.GetString(req.Msg, api.FieldDisplayName), api.GetString(req.Msg, api.FieldPassword))
	if err != nil {
		s.logger.Error("Registration failed", "email", email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	if err := s.sendVerification(user); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp, err := s.session(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return resp, nil
}

// Login authenticates a user and returns a session token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	email := api.GetString(req.Msg, api.FieldEmail)
	password := api.GetString(req.Msg, api.FieldPassword)
	s.logger.Info("Login request", "email", email)

	if email == "" || password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	resp, err := s.session(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return resp, nil
}

// VerifyEmail consumes a verification token and returns a fresh session token
// reflecting the verified address.
func (s *AuthService) VerifyEmail(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	claims, err := s.jwtManager.ValidateVerification(api.GetString(req.Msg, api.FieldToken))
	if err != nil {
		s.logger.Warn("VerifyEmail failed", "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.accounts.SetEmailVerified(ctx, claims.UserID); err != nil {
		s.logger.Error("VerifyEmail failed", "user_id", claims.UserID, "error", err)
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	user, err := s.user(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Email verified", "user_id", user.ID)
	return s.session(user)
}

// ResendVerification issues a new verification token for the signed-in user.
func (s *AuthService) ResendVerification(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EmailVerified {
		return connect.NewResponse(&structpb.Struct{}), nil
	}
	if err := s.sendVerification(user); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&structpb.Struct{}), nil
}

// Logout invalidates the user's session (currently a no-op since JWTs are stateless).
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	// With stateless JWTs, logout is handled client-side by discarding the token.
	s.logger.Info("Logout request", "user_id", middleware.GetUserID(ctx))
	return connect.NewResponse(&structpb.Struct{}), nil
}

// GetCurrentUser returns the currently authenticated user's information.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	s.logger.Info("GetCurrentUser request", "user_id", userID)

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	msg, err := api.NewStruct(map[string]any{api.FieldUser: s.userFields(user)})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func (s *AuthService) user(ctx context.Context, id string) (*models.User, error) {
	user, err := s.accounts.GetUserByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load user", "user_id", id, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if user == nil {
		// the token outlived the account
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}
	return user, nil
}

// session builds the {token, user} response for user.
func (s *AuthService) session(user *models.User) (*connect.Response[structpb.Struct], error) {
	token, err := s.jwtManager.Generate(user, s.authenticator.Providers())
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	msg, err := api.NewStruct(map[string]any{
		api.FieldToken: token,
		api.FieldUser:  s.userFields(user),
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func (s *AuthService) userFields(user *models.User) map[string]any {
	providers := make([]any, 0, len(s.authenticator.Providers()))
	for _, p := range s.authenticator.Providers() {
		providers = append(providers, p)
	}
	return map[string]any{
		api.FieldID:            user.ID,
		api.FieldEmail:         user.Email,
		api.FieldDisplayName:   user.DisplayName,
		api.FieldEmailVerified: user.EmailVerified,
		api.FieldProviders:     providers,
		api.FieldCreatedAt:     time.Unix(user.CreatedAt, 0).UTC().Format(time.RFC3339),
	}
}

// sendVerification logs a verification token in place of sending an email.
func (s *AuthService) sendVerification(user *models.User) error {
	token, err := s.jwtManager.GenerateVerification(user)
	if err != nil {
		return err
	}
	s.logger.Info("Verification token issued", "user_id", user.ID, "email", user.Email, "token", token)
	return nil
}
