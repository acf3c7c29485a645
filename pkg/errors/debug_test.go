package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/multierr"
)

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || len(d.Chain) != 0 {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}

func TestDumpExtractsPgxDetails(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "bundle_items_bundle_listing_key",
		TableName:      "bundle_items",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeDependency, fmt.Errorf("replace items: %w", pgErr), "items write failed")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if d.PGKind != "unique_violation" || d.PGConstraint != "bundle_items_bundle_listing_key" {
		t.Fatalf("unexpected pg fields %+v", d)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected chain of 3, got %d: %v", len(d.Chain), d.Chain)
	}
}

func TestDumpExtractsPqDetails(t *testing.T) {
	err := fmt.Errorf("update header: %w", &pq.Error{Code: "23514", Table: "bundles", Message: "check failed"})
	d := Dump(err)
	if d.PGCode != "23514" || d.PGKind != "check_violation" || d.PGTable != "bundles" {
		t.Fatalf("unexpected pq fields %+v", d)
	}
}

func TestDumpListsCombinedCauses(t *testing.T) {
	err := multierr.Append(stdErrors.New("save failed"), stdErrors.New("release lease: timeout"))
	d := Dump(err)
	if len(d.Causes) != 2 || d.Causes[1] != "release lease: timeout" {
		t.Fatalf("unexpected causes %v", d.Causes)
	}
}

func TestDumpBoundsChain(t *testing.T) {
	err := stdErrors.New("root")
	for i := 0; i < 20; i++ {
		err = fmt.Errorf("layer %d: %w", i, err)
	}
	if d := Dump(err); len(d.Chain) != maxChain {
		t.Fatalf("expected chain capped at %d, got %d", maxChain, len(d.Chain))
	}
}
