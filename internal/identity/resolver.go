package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"studytrack/internal/models"
)

// ErrUnauthorized indicates the credential could not be resolved to a user
var ErrUnauthorized = errors.New("unauthorized")

// Resolver maps a caller credential to a user identity. It is an external
// collaborator of the core: the core never issues credentials, it only
// consumes resolved identities.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (models.User, error)
}

// JWTResolver resolves HS256-signed bearer tokens. The token subject is the
// user id; the is_premium claim carries the premium flag.
type JWTResolver struct {
	secret []byte
}

// NewJWTResolver creates a resolver validating tokens against the given secret
func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

// Resolve validates the token and extracts the user identity. Every failure
// mode (bad signature, expiry, malformed claims) maps to ErrUnauthorized.
func (r *JWTResolver) Resolve(ctx context.Context, credential string) (models.User, error) {
	claims := jwt.MapClaims{}

	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return models.User{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return models.User{}, fmt.Errorf("%w: missing subject", ErrUnauthorized)
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: subject is not a user id", ErrUnauthorized)
	}

	user := models.User{ID: userID}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	if premium, ok := claims["is_premium"].(bool); ok {
		user.IsPremium = premium
	}

	return user, nil
}
