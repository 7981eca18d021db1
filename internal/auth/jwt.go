// Package auth implements the stateless session credentials: signed,
// time-limited bearer tokens and bcrypt password digests.
//
// Tokens are self-contained — validity is decided purely by signature and
// expiry at verification time. There is no revocation list and no refresh:
// an expired token requires a fresh login, and rotating the signing secret
// invalidates every outstanding token at once.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by VerifyToken for any token that cannot be
// resolved to a user: bad signature, malformed payload, wrong algorithm,
// or past expiry. Callers map it to 401 without distinguishing the cause.
var ErrInvalidToken = errors.New("invalid or expired token")

// Issuer signs and verifies session tokens with a process-wide HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration

	// now is stubbed in tests to mint already-expired tokens.
	now func() time.Time
}

// NewIssuer constructs an Issuer. A non-positive ttl falls back to 7 days.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueToken produces a signed HS256 token embedding userID and an expiry
// ttl from now.
func (i *Issuer) IssueToken(userID string) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(i.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// VerifyToken checks signature and expiry and returns the embedded user id.
// Any failure collapses to ErrInvalidToken; the parse detail is not leaked
// to callers (and therefore never to clients).
func (i *Issuer) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
