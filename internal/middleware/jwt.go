package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/utils"
)

const principalKey = "principal"

var ErrNoVerifier = errors.New("no token verifier accepted the token")

// TokenVerifier turns a bearer token into the caller identity.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (models.Principal, error)
}

// HMACVerifier accepts HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(_ context.Context, raw string) (models.Principal, error) {
	var claims utils.Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return models.Principal{}, err
	}
	if claims.Subject == "" {
		return models.Principal{}, errors.New("token has no subject")
	}
	return principalFrom(claims.Subject, claims.IsStaff, claims.Capabilities), nil
}

// OIDCVerifier accepts ID tokens issued by an external OpenID Connect provider.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider's signing keys from its issuer URL.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider %s: %w", issuer, err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// NewOIDCVerifierWithKeys builds a verifier from a known key set.
func NewOIDCVerifierWithKeys(issuer, clientID string, keys oidc.KeySet) *OIDCVerifier {
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID})}
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (models.Principal, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return models.Principal{}, err
	}
	var claims struct {
		IsStaff      bool     `json:"is_staff"`
		Capabilities []string `json:"capabilities"`
	}
	if err := token.Claims(&claims); err != nil {
		return models.Principal{}, err
	}
	return principalFrom(token.Subject, claims.IsStaff, claims.Capabilities), nil
}

// Verifiers tries each verifier in turn and returns the first success.
type Verifiers []TokenVerifier

func (vs Verifiers) Verify(ctx context.Context, raw string) (models.Principal, error) {
	errs := make([]error, 0, len(vs))
	for _, v := range vs {
		p, err := v.Verify(ctx, raw)
		if err == nil {
			return p, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return models.Principal{}, ErrNoVerifier
	}
	return models.Principal{}, errors.Join(errs...)
}

// principalFrom keeps only known capabilities.
func principalFrom(subject string, staff bool, caps []string) models.Principal {
	p := models.Principal{UserID: subject, IsStaff: staff}
	for _, raw := range caps {
		if c, err := models.ParseCapability(raw); err == nil {
			p.Granted = append(p.Granted, c)
		}
	}
	return p
}

// AuthRequired rejects requests without a valid bearer token and stores the principal.
func AuthRequired(verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}

		principal, err := verifier.Verify(c.Request.Context(), strings.TrimPrefix(authHeader, prefix))
		if err != nil {
			log.Debug("bearer token rejected", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(principalKey, principal)
		c.Set("user_id", principal.UserID)
		c.Next()
	}
}

// GetPrincipal returns the identity stored by AuthRequired.
func GetPrincipal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}
