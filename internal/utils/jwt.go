package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront_back_end/internal/models"
)

// Claims is the bearer-token payload understood by the HMAC verifier.
type Claims struct {
	IsStaff      bool     `json:"is_staff,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	jwt.RegisteredClaims
}

// GenerateJWT signs an HS256 token for the principal.
func GenerateJWT(secret string, p models.Principal, ttl time.Duration) (string, error) {
	caps := make([]string, len(p.Granted))
	for i, c := range p.Granted {
		caps[i] = string(c)
	}
	now := time.Now()
	claims := Claims{
		IsStaff:      p.IsStaff,
		Capabilities: caps,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
