package service

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
)

type fakeRow struct {
	scanned *int
}

func (r fakeRow) Scan(dest ...any) error {
	for _, d := range dest {
		if p, ok := d.(*int64); ok {
			*p = 1
		}
	}
	*r.scanned = len(dest)
	return nil
}

type fakeQuerier struct {
	sql     string
	scanned int
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.sql = sql
	return fakeRow{scanned: &q.scanned}
}

// The rollups query the tables AutoMigrate creates. None of the models carry
// a soft-delete column, so a deleted_at predicate would fail at runtime.
func TestStatsService_QueriesMatchMigratedSchema(t *testing.T) {
	db := &fakeQuerier{}
	svc := &StatsService{db: db}
	ctx := context.Background()

	cases := []struct {
		name     string
		run      func() error
		wantCols int
	}{
		{"public", func() error { _, err := svc.Public(ctx); return err }, 4},
		{"admin", func() error { _, err := svc.Admin(ctx); return err }, 9},
		{"user", func() error { _, err := svc.User(ctx, 1); return err }, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); err != nil {
				t.Fatalf("rollup returned error: %v", err)
			}
			if strings.Contains(db.sql, "deleted_at") {
				t.Fatalf("query references deleted_at, which no model migrates:\n%s", db.sql)
			}
			if db.scanned != tc.wantCols {
				t.Fatalf("scanned %d columns, want %d", db.scanned, tc.wantCols)
			}
		})
	}
}

func TestStatsService_UserAggregates(t *testing.T) {
	db := &fakeQuerier{}
	svc := &StatsService{db: db}

	stats, err := svc.User(context.Background(), 42)
	if err != nil {
		t.Fatalf("User returned error: %v", err)
	}
	if stats.Websites != 1 || stats.Categories != 1 || stats.TotalClicks != 1 {
		t.Fatalf("scan results not propagated: %+v", stats)
	}
	if !strings.Contains(db.sql, "user_id = $1") {
		t.Fatalf("user rollup must filter by owner:\n%s", db.sql)
	}
}
