package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmehra2102/commerce-core/pkg/apperr"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 bearer tokens issued by the session provider.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(raw string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, apperr.Wrap(apperr.KindUnauthenticated, "invalid or expired token", err)
	}

	role, ok := ParseRole(claims.Role)
	if !ok {
		return Identity{}, apperr.Newf(apperr.KindUnauthenticated, "unknown role %q", claims.Role)
	}
	if claims.Subject == "" {
		return Identity{}, apperr.New(apperr.KindUnauthenticated, "token has no subject")
	}
	return Identity{CustomerID: claims.Subject, Email: claims.Email, Role: role}, nil
}

// Issue signs a token for id; used by tests and local tooling.
func (v *Verifier) Issue(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		Role:  string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.CustomerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// FromRequest extracts and verifies the Authorization bearer token.
func (v *Verifier) FromRequest(r *http.Request) (Identity, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return Identity{}, apperr.New(apperr.KindUnauthenticated, "authorization header is missing")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return v.Verify(raw)
}
