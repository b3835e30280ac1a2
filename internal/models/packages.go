// internal/models/packages.go
package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbgen "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db/generated"
)

var ErrPackageUnavailable = errors.New("package unavailable")

const (
	LedgerReasonDebit   = "debit"
	LedgerReasonRestore = "restore"
)

type PackageUseParams struct {
	PackageID int64
	BookingID int64
	At        time.Time
}

type PackageUseResult struct {
	Package dbgen.Package
	Entry   dbgen.PackageLedger
}

// DebitPackageUse consumes one use of a package and records it in the ledger.
// Callers must pass a transactional querier so the debit commits or rolls back
// together with the booking it pays for.
func DebitPackageUse(ctx context.Context, q dbgen.Querier, params PackageUseParams) (PackageUseResult, error) {
	if err := validatePackageUse(q, params); err != nil {
		return PackageUseResult{}, err
	}

	updated, err := q.DebitPackageUse(ctx, params.PackageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PackageUseResult{}, ErrPackageUnavailable
		}
		return PackageUseResult{}, err
	}

	entry, err := createLedgerEntry(ctx, q, updated, params, -1, LedgerReasonDebit)
	if err != nil {
		return PackageUseResult{}, err
	}
	return PackageUseResult{Package: updated, Entry: entry}, nil
}

// RestorePackageUse gives back the use consumed by a cancelled booking. A
// depleted package becomes active again.
func RestorePackageUse(ctx context.Context, q dbgen.Querier, params PackageUseParams) (PackageUseResult, error) {
	if err := validatePackageUse(q, params); err != nil {
		return PackageUseResult{}, err
	}

	updated, err := q.RestorePackageUse(ctx, params.PackageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PackageUseResult{}, ErrPackageUnavailable
		}
		return PackageUseResult{}, err
	}

	entry, err := createLedgerEntry(ctx, q, updated, params, 1, LedgerReasonRestore)
	if err != nil {
		return PackageUseResult{}, err
	}
	return PackageUseResult{Package: updated, Entry: entry}, nil
}

func validatePackageUse(q dbgen.Querier, params PackageUseParams) error {
	if q == nil {
		return fmt.Errorf("queries are required")
	}
	if params.PackageID <= 0 {
		return fmt.Errorf("package_id must be a positive integer")
	}
	if params.BookingID <= 0 {
		return fmt.Errorf("booking_id must be a positive integer")
	}
	return nil
}

func createLedgerEntry(ctx context.Context, q dbgen.Querier, pkg dbgen.Package, params PackageUseParams, delta int64, reason string) (dbgen.PackageLedger, error) {
	// Unlimited packages have no counter to move; the entry is still kept for auditing.
	if pkg.Unlimited || !pkg.UsesRemaining.Valid {
		delta = 0
	}
	at := params.At
	if at.IsZero() {
		at = time.Now()
	}
	return q.CreatePackageLedgerEntry(ctx, dbgen.CreatePackageLedgerEntryParams{
		PackageID: params.PackageID,
		BookingID: params.BookingID,
		Delta:     delta,
		Reason:    reason,
		CreatedAt: at.UTC(),
	})
}
