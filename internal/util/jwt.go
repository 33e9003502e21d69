package util

import (
	"context"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
)

// DecodeJWTClaims parses a compact JWT and returns its claims. The signature is not verified and
// time based claims are not validated; callers that need either must do so separately.
func DecodeJWTClaims(ctx context.Context, token string) (map[string]any, error) {
	parsed, err := jwt.Parse([]byte(token), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, errors.Wrap(err, "parsing jwt")
	}
	claims, err := parsed.AsMap(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reading jwt claims")
	}
	return claims, nil
}
