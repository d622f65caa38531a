package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingCredential is returned when a request carries no bearer credential.
	ErrMissingCredential = errors.New("auth: missing credential")
	// ErrInvalidToken is returned when the token is malformed, badly signed or has no subject.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("auth: token has expired")
)

// Verifier turns a bearer credential into a verified user identifier.
type Verifier interface {
	Verify(ctx context.Context, credential string) (string, error)
}

// Claims are the claims accepted from issued access tokens. The user
// identifier is the registered subject, or the user_id claim when the issuer
// leaves the subject empty.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig configures the HMAC verifier. An empty Issuer accepts any issuer.
type JWTConfig struct {
	SecretKey string
	Issuer    string
	Leeway    time.Duration
}

// JWTVerifier validates HS256 access tokens issued by the platform.
type JWTVerifier struct {
	config JWTConfig
	parser *jwt.Parser
}

// NewJWTVerifier creates a verifier for the given configuration.
func NewJWTVerifier(config JWTConfig) *JWTVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(config.Leeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	return &JWTVerifier{config: config, parser: jwt.NewParser(opts...)}
}

// Verify validates the token and returns the user it was issued to.
func (v *JWTVerifier) Verify(ctx context.Context, credential string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if credential == "" {
		return "", ErrMissingCredential
	}

	token, err := v.parser.ParseWithClaims(credential, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(v.config.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	userID := claims.Subject
	if userID == "" {
		userID = claims.UserID
	}
	if userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// IssueToken signs an access token for userID. The service itself never
// issues credentials; this exists for tooling and tests.
func IssueToken(config JWTConfig, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.SecretKey))
}
