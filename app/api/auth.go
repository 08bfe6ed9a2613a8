package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer  = "boards-press"
	tokenSubject = "admin"
)

var ErrAdminDisabled = errors.New("admin access disabled: no admin secret configured")

// Authenticator guards the admin routes. The admin secret doubles as the HMAC key for session tokens.
type Authenticator struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: secret, ttl: ttl, now: time.Now}
}

func (a *Authenticator) Enabled() bool {
	return a.secret != ""
}

func (a *Authenticator) checkSecret(provided string) bool {
	return a.Enabled() && subtle.ConstantTimeCompare([]byte(provided), []byte(a.secret)) == 1
}

// IssueToken returns a signed session token for a caller that presented the admin secret.
func (a *Authenticator) IssueToken(secret string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, ErrAdminDisabled
	}
	if !a.checkSecret(secret) {
		return "", time.Time{}, errors.New("invalid admin secret")
	}

	now := a.now()
	expires := now.Add(a.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expires, nil
}

func (a *Authenticator) VerifyToken(raw string) error {
	if !a.Enabled() {
		return ErrAdminDisabled
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(a.secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(tokenSubject),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return fmt.Errorf("invalid session token: %w", err)
	}
	return nil
}

// Middleware accepts the admin secret in X-API-Key or a session token as a Bearer credential.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, envelope{Error: ErrAdminDisabled.Error()})
			return
		}

		if key := c.GetHeader("X-API-Key"); key != "" {
			if !a.checkSecret(key) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Error: "invalid API key"})
				return
			}
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{
				Error: "credentials required: provide X-API-Key or Authorization: Bearer <token>",
			})
			return
		}

		if err := a.VerifyToken(strings.TrimPrefix(header, "Bearer ")); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Error: err.Error()})
			return
		}

		c.Next()
	}
}
