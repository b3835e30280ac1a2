package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dbgen "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db/generated"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

const (
	RoleAthlete  = "athlete"
	RoleGuardian = "guardian"
	RoleStaff    = "staff"
)

// AuthUser is the caller identified by the bearer token. AthleteID is set for
// athletes and GuardianID for guardians.
type AuthUser struct {
	ID             string
	Role           string
	OrganizationID int64
	AthleteID      *int64
	GuardianID     *int64
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

func IsStaff(user *AuthUser) bool {
	return user != nil && user.Role == RoleStaff
}

// CallerKey identifies the caller for rate limiting, e.g. "athlete:12".
func (u *AuthUser) CallerKey() string {
	switch {
	case u == nil:
		return ""
	case u.Role == RoleAthlete && u.AthleteID != nil:
		return fmt.Sprintf("athlete:%d", *u.AthleteID)
	case u.Role == RoleGuardian && u.GuardianID != nil:
		return fmt.Sprintf("guardian:%d", *u.GuardianID)
	}
	return u.Role + ":" + u.ID
}

// ActingGuardian returns the guardian ID when the caller books on behalf of athleteID.
func (u *AuthUser) ActingGuardian(athleteID int64) *int64 {
	if u == nil || u.Role != RoleGuardian || u.GuardianID == nil {
		return nil
	}
	if u.AthleteID != nil && *u.AthleteID == athleteID {
		return nil
	}
	return u.GuardianID
}

// RequireAthleteAccess allows the athlete themself, a guardian linked to the
// athlete, or staff of the athlete's organization. Unknown athletes are
// reported as forbidden.
func RequireAthleteAccess(ctx context.Context, q dbgen.Querier, athleteID int64) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}

	switch user.Role {
	case RoleAthlete:
		if user.AthleteID != nil && *user.AthleteID == athleteID {
			return nil
		}
	case RoleGuardian:
		if user.GuardianID == nil {
			return ErrForbidden
		}
		linked, err := q.IsGuardianOfAthlete(ctx, dbgen.IsGuardianOfAthleteParams{
			GuardianID: *user.GuardianID,
			AthleteID:  athleteID,
		})
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check guardian link: %w", err)
		}
		if linked > 0 {
			return nil
		}
	case RoleStaff:
		athlete, err := q.GetAthlete(ctx, athleteID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrForbidden
		}
		if err != nil {
			return fmt.Errorf("load athlete: %w", err)
		}
		if athlete.OrganizationID == user.OrganizationID {
			return nil
		}
	}
	return ErrForbidden
}

// RequireOrganizationAccess allows any caller belonging to orgID.
func RequireOrganizationAccess(ctx context.Context, orgID int64) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if user.OrganizationID != orgID {
		return ErrForbidden
	}
	return nil
}
