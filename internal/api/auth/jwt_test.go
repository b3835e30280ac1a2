package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/api/authz"
)

func int64Ptr(v int64) *int64 { return &v }

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()
	tokens, err := NewTokens("test-secret")
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	return tokens
}

func athleteClaims() Claims {
	return Claims{
		Role:             authz.RoleAthlete,
		OrganizationID:   1,
		AthleteID:        int64Ptr(7),
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-7"},
	}
}

func TestNewTokensRequiresSecret(t *testing.T) {
	if _, err := NewTokens("  "); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestUserFromRequest(t *testing.T) {
	tokens := newTestTokens(t)
	signed, err := tokens.Issue(athleteClaims(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	user, err := tokens.UserFromRequest(req)
	if err != nil {
		t.Fatalf("user from request: %v", err)
	}
	if user.ID != "user-7" || user.Role != authz.RoleAthlete || user.OrganizationID != 1 {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.AthleteID == nil || *user.AthleteID != 7 {
		t.Fatalf("expected athlete 7, got %v", user.AthleteID)
	}
}

func TestUserFromRequestMissingToken(t *testing.T) {
	tokens := newTestTokens(t)
	for _, header := range []string{"", "Basic abc", "Bearer ", "token"} {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if _, err := tokens.UserFromRequest(req); !errors.Is(err, ErrMissingToken) {
			t.Fatalf("header %q: expected ErrMissingToken, got %v", header, err)
		}
	}
}

func TestParseRejectsBadTokens(t *testing.T) {
	tokens := newTestTokens(t)

	expired, err := tokens.Issue(athleteClaims(), -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other, _ := NewTokens("another-secret")
	foreign, err := other.Issue(athleteClaims(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, athleteClaims()).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Role:           authz.RoleStaff,
		OrganizationID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "staff-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	missingAthlete := athleteClaims()
	missingAthlete.AthleteID = nil
	noAthlete, _ := tokens.Issue(missingAthlete, time.Hour)

	guardian := athleteClaims()
	guardian.Role = authz.RoleGuardian
	noGuardian, _ := tokens.Issue(guardian, time.Hour)

	unknownRole := athleteClaims()
	unknownRole.Role = "coach"
	badRole, _ := tokens.Issue(unknownRole, time.Hour)

	noOrg := athleteClaims()
	noOrg.OrganizationID = 0
	missingOrg, _ := tokens.Issue(noOrg, time.Hour)

	tests := map[string]string{
		"expired":             expired,
		"wrong secret":        foreign,
		"no expiry":           noExpiry,
		"wrong algorithm":     wrongAlg,
		"athlete without id":  noAthlete,
		"guardian without id": noGuardian,
		"unknown role":        badRole,
		"missing org":         missingOrg,
		"garbage":             "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := tokens.Parse(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestParseStaffToken(t *testing.T) {
	tokens := newTestTokens(t)
	signed, err := tokens.Issue(Claims{
		Role:             authz.RoleStaff,
		OrganizationID:   4,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "staff-1"},
	}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !authz.IsStaff(claims.User()) {
		t.Fatalf("expected staff user, got %+v", claims.User())
	}
}
