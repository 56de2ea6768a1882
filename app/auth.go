package relay

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tanwk/relay/pkg/router"
)

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrUnrecognizedToken = errors.New("unrecognized token")
)

// AuthClaims are the claims of a bearer token issued by the upstream
// identity service. The relay only verifies the signature and expiry; it
// never issues tokens or keeps user records.
type AuthClaims struct {
	jwt.RegisteredClaims
}

func VerifyToken(token string, secret []byte) (*AuthClaims, error) {
	claims := &AuthClaims{}
	_token, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))

	switch {
	case _token != nil && _token.Valid:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrTokenInvalid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrTokenInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrUnrecognizedToken
	}
}

// BearerMiddleware gates a route on a valid upstream-issued bearer token.
// The token is taken from the Authorization header, or from the "token"
// query parameter since browser websocket clients cannot set headers.
func BearerMiddleware(secret []byte) router.Middleware {
	return func(next http.Handler) router.HandlerFunc {
		authErr := router.NewJsonError(http.StatusUnauthorized, "unauthenticated")

		return func(w http.ResponseWriter, r *http.Request) error {
			token := bearerToken(r)
			if token == "" {
				return authErr
			}
			if _, err := VerifyToken(token, secret); err != nil {
				return authErr
			}
			next.ServeHTTP(w, r)
			return nil
		}
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return r.URL.Query().Get("token")
}
