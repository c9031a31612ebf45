package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PublicStats are the aggregate counters shown on the public stats page.
// Only public, visible rows count.
type PublicStats struct {
	Websites    int64 `json:"websites"`
	Categories  int64 `json:"categories"`
	Tags        int64 `json:"tags"`
	TotalClicks int64 `json:"total_clicks"`
}

// AdminStats extend the public aggregates with account and invitation
// counters for the admin dashboard.
type AdminStats struct {
	Users           int64 `json:"users"`
	ActiveUsers     int64 `json:"active_users"`
	Websites        int64 `json:"websites"`
	Categories      int64 `json:"categories"`
	Tags            int64 `json:"tags"`
	TotalClicks     int64 `json:"total_clicks"`
	BrokenLinks     int64 `json:"broken_links"`
	InvitationCodes int64 `json:"invitation_codes"`
	UnusedCodes     int64 `json:"unused_codes"`
}

// UserStats summarize one account's own content.
type UserStats struct {
	Websites    int64 `json:"websites"`
	Categories  int64 `json:"categories"`
	TotalClicks int64 `json:"total_clicks"`
}

// Rollup queries run against the migrated schema directly. Deletes are hard
// deletes everywhere, so no tombstone column exists to filter on.
const (
	publicStatsQuery = `
		SELECT
			(SELECT COUNT(*) FROM websites WHERE is_public AND is_active),
			(SELECT COUNT(*) FROM categories WHERE is_public AND is_visible),
			(SELECT COUNT(*) FROM tags),
			(SELECT COALESCE(SUM(click_count), 0) FROM websites WHERE is_public)`

	adminStatsQuery = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active),
			(SELECT COUNT(*) FROM websites),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM tags),
			(SELECT COALESCE(SUM(click_count), 0) FROM websites),
			(SELECT COUNT(*) FROM websites WHERE link_status = 'broken'),
			(SELECT COUNT(*) FROM invitation_codes),
			(SELECT COUNT(*) FROM invitation_codes WHERE NOT is_used)`

	userStatsQuery = `
		SELECT
			(SELECT COUNT(*) FROM websites WHERE user_id = $1),
			(SELECT COUNT(*) FROM categories WHERE user_id = $1),
			(SELECT COALESCE(SUM(click_count), 0) FROM websites WHERE user_id = $1)`
)

// statsQuerier is the slice of pgxpool.Pool the rollups need.
type statsQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatsService computes aggregates with raw SQL over the pgx pool. These are
// read-only rollups; the per-row writes stay on GORM.
type StatsService struct {
	db statsQuerier
}

// NewStatsService returns a stats reader over the given pool.
func NewStatsService(pool *pgxpool.Pool) *StatsService {
	return &StatsService{db: pool}
}

func (s *StatsService) Public(ctx context.Context) (*PublicStats, error) {
	var stats PublicStats
	err := s.db.QueryRow(ctx, publicStatsQuery).Scan(
		&stats.Websites,
		&stats.Categories,
		&stats.Tags,
		&stats.TotalClicks,
	)
	if err != nil {
		return nil, fmt.Errorf("public stats: %w", err)
	}
	return &stats, nil
}

func (s *StatsService) Admin(ctx context.Context) (*AdminStats, error) {
	var stats AdminStats
	err := s.db.QueryRow(ctx, adminStatsQuery).Scan(
		&stats.Users,
		&stats.ActiveUsers,
		&stats.Websites,
		&stats.Categories,
		&stats.Tags,
		&stats.TotalClicks,
		&stats.BrokenLinks,
		&stats.InvitationCodes,
		&stats.UnusedCodes,
	)
	if err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return &stats, nil
}

func (s *StatsService) User(ctx context.Context, userID uint) (*UserStats, error) {
	var stats UserStats
	err := s.db.QueryRow(ctx, userStatsQuery, userID).Scan(
		&stats.Websites,
		&stats.Categories,
		&stats.TotalClicks,
	)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return &stats, nil
}
