package middleware

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/knotcraft/Pre-production/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for the authenticated session's claims.
	ClaimsKey contextKey = "claims"
)

// GetClaims extracts the session claims from the context, or nil.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.Email
	}
	return ""
}

// WithClaims returns ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(header http.Header) (string, error) {
	authHeader := header.Get("Authorization")
	if authHeader == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", auth.ErrInvalidToken
	}
	return parts[1], nil
}

// authInterceptor validates bearer tokens on unary and streaming handlers.
type authInterceptor struct {
	jwtManager *auth.JWTManager
	required   bool
}

// RequireAuth returns an interceptor that rejects requests without a valid session
// token and adds the session claims to the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.Interceptor {
	return &authInterceptor{jwtManager: jwtManager, required: true}
}

// OptionalAuth returns an interceptor that adds claims for valid tokens but lets
// unauthenticated requests through.
func OptionalAuth(jwtManager *auth.JWTManager) connect.Interceptor {
	return &authInterceptor{jwtManager: jwtManager}
}

func (i *authInterceptor) authenticate(ctx context.Context, header http.Header) (context.Context, error) {
	token, err := bearerToken(header)
	if err == nil {
		var claims *auth.Claims
		if claims, err = i.jwtManager.Validate(token); err == nil {
			return WithClaims(ctx, claims), nil
		}
	}
	if i.required {
		return ctx, connect.NewError(connect.CodeUnauthenticated, err)
	}
	return ctx, nil
}

func (i *authInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		ctx, err := i.authenticate(ctx, req.Header())
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

func (i *authInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *authInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		ctx, err := i.authenticate(ctx, conn.RequestHeader())
		if err != nil {
			return err
		}
		return next(ctx, conn)
	}
}

// BearerToken returns a client interceptor that sends token() as the Authorization
// header. An empty token sends no header.
func BearerToken(token func() string) connect.Interceptor {
	return &bearerInterceptor{token: token}
}

type bearerInterceptor struct {
	token func() string
}

func (b *bearerInterceptor) set(header http.Header) {
	if t := b.token(); t != "" {
		header.Set("Authorization", "Bearer "+t)
	}
}

func (b *bearerInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			b.set(req.Header())
		}
		return next(ctx, req)
	}
}

func (b *bearerInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		b.set(conn.RequestHeader())
		return conn
	}
}

func (b *bearerInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
