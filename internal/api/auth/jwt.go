// Package auth verifies the bearer tokens presented to the booking API.
// Tokens are issued by the identity service and signed with a shared HS256 secret.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/api/authz"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

type Claims struct {
	Role           string `json:"role"`
	OrganizationID int64  `json:"org_id"`
	AthleteID      *int64 `json:"athlete_id,omitempty"`
	GuardianID     *int64 `json:"guardian_id,omitempty"`
	jwt.RegisteredClaims
}

type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &Tokens{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs claims valid for ttl. Used by tooling and tests; production
// tokens come from the identity service.
func (t *Tokens) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := t.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *Tokens) Parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := claims.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func (c *Claims) validate() error {
	if c.Subject == "" {
		return errors.New("subject is required")
	}
	if c.OrganizationID <= 0 {
		return errors.New("org_id is required")
	}
	switch c.Role {
	case authz.RoleAthlete:
		if c.AthleteID == nil {
			return errors.New("athlete_id is required for athletes")
		}
	case authz.RoleGuardian:
		if c.GuardianID == nil {
			return errors.New("guardian_id is required for guardians")
		}
	case authz.RoleStaff:
	default:
		return fmt.Errorf("unknown role %q", c.Role)
	}
	return nil
}

func (c *Claims) User() *authz.AuthUser {
	return &authz.AuthUser{
		ID:             c.Subject,
		Role:           c.Role,
		OrganizationID: c.OrganizationID,
		AthleteID:      c.AthleteID,
		GuardianID:     c.GuardianID,
	}
}

// UserFromRequest reads the Authorization header. It returns ErrMissingToken
// when no bearer token is present.
func (t *Tokens) UserFromRequest(r *http.Request) (*authz.AuthUser, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return nil, ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	claims, err := t.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	return claims.User(), nil
}
