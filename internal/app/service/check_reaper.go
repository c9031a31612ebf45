package service

import (
	"context"
	"time"

	apprepository "github.com/xingxinag/onebooknav/internal/app/repository"
	"go.uber.org/zap"
)

// CheckReaper periodically reverts websites stuck in the checking status back
// to unknown, so a crashed probe never pins a link forever.
type CheckReaper struct {
	logger   *zap.Logger
	repo     apprepository.WebsiteRepository
	ttl      time.Duration
	interval time.Duration
	stopChan chan struct{}
}

// NewCheckReaper creates a new stale-check reaper.
func NewCheckReaper(logger *zap.Logger, repo apprepository.WebsiteRepository, ttl time.Duration) *CheckReaper {
	return &CheckReaper{
		logger:   logger,
		repo:     repo,
		ttl:      ttl,
		interval: 30 * time.Second,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sweep for stale checking states.
func (c *CheckReaper) Start() {
	go c.run()
}

// Stop stops the periodic sweep.
func (c *CheckReaper) Stop() {
	close(c.stopChan)
}

func (c *CheckReaper) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.reapStaleChecks()
		case <-c.stopChan:
			c.logger.Info("check reaper stopped")
			return
		}
	}
}

func (c *CheckReaper) reapStaleChecks() {
	ctx := context.Background()
	staleBefore := time.Now().Add(-c.ttl)

	affected, err := c.repo.RevertStaleChecking(ctx, staleBefore)
	if err != nil {
		c.logger.Error("failed to revert stale checking websites", zap.Error(err))
		return
	}

	if affected > 0 {
		c.logger.Info("reverted stale checking websites to unknown",
			zap.Int64("count", affected),
			zap.Time("stale_before", staleBefore),
		)
	}
}
