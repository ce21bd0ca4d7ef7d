package middleware

import (
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

const (
	// VoterTokenKey is the gin context key the handlers read.
	VoterTokenKey = "voterToken"

	voterCookieName = "rh_voter"
	voterCookieTTL  = 30 * 24 * time.Hour
)

// VoterToken resolves the opaque per-viewer token used for vote dedup. A
// valid signed cookie wins; otherwise the token is derived from client IP and
// User-Agent and a fresh cookie carrying it is issued, so the identity stays
// stable for the retention window even if the address changes later.
//
// The token is deliberately weak: it throttles casual double voting and is
// never an identity or authorization proof.
func VoterToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(voterCookieName); err == nil {
			if token, ok := parseVoterCookie(raw, secret); ok {
				c.Set(VoterTokenKey, token)
				c.Next()
				return
			}
		}

		token := deriveVoterToken(c.ClientIP(), c.Request.UserAgent())
		if signed, err := signVoterCookie(token, secret); err == nil {
			c.SetCookie(voterCookieName, signed, int(voterCookieTTL.Seconds()), "/", "", false, true)
		}

		c.Set(VoterTokenKey, token)
		c.Next()
	}
}

// CurrentVoterToken reads the token placed by VoterToken.
func CurrentVoterToken(c *gin.Context) (string, bool) {
	token, ok := c.Get(VoterTokenKey)
	if !ok {
		return "", false
	}
	s, ok := token.(string)
	return s, ok && s != ""
}

func deriveVoterToken(clientIP, userAgent string) string {
	sum := blake2b.Sum256([]byte(clientIP + "\x00" + userAgent))
	return hex.EncodeToString(sum[:16])
}

func signVoterCookie(token, secret string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   token,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(voterCookieTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseVoterCookie(raw, secret string) (string, bool) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", false
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// RequireVoterToken guards routes that cannot proceed without a token.
func RequireVoterToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentVoterToken(c); !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing voter token"})
			return
		}
		c.Next()
	}
}
