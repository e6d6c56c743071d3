package token

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SessionVerifier checks login tokens issued by the platform's auth service.
// The party id is carried in the "id" claim, or "sub" for newer tokens.
type SessionVerifier struct {
	secret []byte
}

func NewSessionVerifier(secret string) *SessionVerifier {
	return &SessionVerifier{secret: []byte(secret)}
}

func (v *SessionVerifier) Verify(tokenString string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.secret, nil
	})
	if err != nil {
		return "", classify(err)
	}

	for _, key := range []string{"id", "sub"} {
		if id, ok := claims[key].(string); ok && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: missing party id claim", ErrInvalidToken)
}

// IsDelegation reports whether an unverified token claims the delegation
// audience. It only routes verification; it is not a trust decision.
func IsDelegation(tokenString string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return false
	}
	aud, err := claims.GetAudience()
	if err != nil {
		return false
	}
	for _, a := range aud {
		if a == DelegationAudience {
			return true
		}
	}
	return false
}

// FromHeaders extracts a bearer token from an Authorization value, falling
// back to the legacy "token" header value.
func FromHeaders(authorization, legacy string) string {
	if strings.HasPrefix(authorization, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
	}
	return strings.TrimSpace(legacy)
}
