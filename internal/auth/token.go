// Package auth issues and verifies the HS256 bearer tokens used by the admin panel.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// RoleAdmin is the only role the panel knows about.
const RoleAdmin = "admin"

var (
	ErrNoSecret     = errors.New("admin token secret not configured")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload of an admin token.
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// Principal is the verified caller.
type Principal struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// Issuer signs and verifies tokens with a shared secret.
type Issuer struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Issuer{Secret: []byte(secret), TTL: ttl, now: time.Now}
}

// Issue returns a signed token for subject and its expiry.
func (i *Issuer) Issue(subject string) (string, time.Time, error) {
	if len(i.Secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}
	now := i.now()
	exp := now.Add(i.TTL)
	claims := Claims{
		Role: RoleAdmin,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: exp.Unix(),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tok, time.Unix(exp.Unix(), 0).UTC(), nil
}

// Verify checks signature, algorithm and expiry.
func (i *Issuer) Verify(token string) (Principal, error) {
	if len(i.Secret) == 0 {
		return Principal{}, ErrNoSecret
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrInvalidToken
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg %v", t.Header["alg"])
		}
		return i.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Role != RoleAdmin {
		return Principal{}, fmt.Errorf("%w: role %q", ErrInvalidToken, claims.Role)
	}
	return Principal{Subject: claims.Subject, Role: claims.Role, ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC()}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
