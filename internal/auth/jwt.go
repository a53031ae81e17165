package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/knotcraft/Pre-production/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// PurposeVerifyEmail marks tokens that may only be used to verify an email address.
const PurposeVerifyEmail = "verify_email"

// VerificationTokenDuration is how long an email verification link stays valid.
const VerificationTokenDuration = 24 * time.Hour

// JWTManager handles JWT token generation and validation.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// Claims represents the custom JWT claims for a user session.
type Claims struct {
	UserID        string   `json:"user_id"`
	Email         string   `json:"email"`
	Providers     []string `json:"providers,omitempty"`
	EmailVerified bool     `json:"email_verified"`
	// Purpose is empty for session tokens.
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// NewJWTManager creates a new JWT manager with the given secret and token duration.
// secretKey should be a strong random string (e.g., 32 bytes).
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}
}

// Generate creates a session token for user.
func (m *JWTManager) Generate(user *models.User, providers []string) (string, error) {
	return m.sign(&Claims{
		UserID:        user.ID,
		Email:         user.Email,
		Providers:     slices.Clone(providers),
		EmailVerified: user.EmailVerified,
	}, m.tokenDuration)
}

// GenerateVerification creates a single-purpose token that verifies user's email.
func (m *JWTManager) GenerateVerification(user *models.User) (string, error) {
	return m.sign(&Claims{
		UserID:  user.ID,
		Email:   user.Email,
		Purpose: PurposeVerifyEmail,
	}, VerificationTokenDuration)
}

func (m *JWTManager) sign(claims *Claims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate parses a session token, returning its claims if valid.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, fmt.Errorf("%w: %s token used as session", ErrInvalidToken, claims.Purpose)
	}
	return claims, nil
}

// ValidateVerification parses an email verification token.
func (m *JWTManager) ValidateVerification(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeVerifyEmail {
		return nil, fmt.Errorf("%w: not a verification token", ErrInvalidToken)
	}
	return claims, nil
}

func (m *JWTManager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Verify the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
