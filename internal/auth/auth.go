// Package auth turns bearer tokens minted by the account service into an
// actor identity. Token issuance lives in that service, not here.
package auth

import (
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/Shivanand-hulikatti/field-booking/internal/model"
)

// ErrInvalidToken is returned for missing, malformed, expired or badly
// signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload shared with the account service.
type Claims struct {
	Role     string `json:"role"`
	Verified bool   `json:"is_verified"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier constructs a Verifier for secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Actor validates token and returns the identity it carries.
func (v *Verifier) Actor(token string) (model.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Actor{}, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return model.Actor{}, ErrInvalidToken
	}

	return model.Actor{
		UserID:   claims.Subject,
		Role:     claims.Role,
		Verified: claims.Verified,
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
