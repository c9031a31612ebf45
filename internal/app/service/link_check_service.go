package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
	infraprometheus "github.com/xingxinag/onebooknav/internal/infra/prometheus"
	"go.uber.org/zap"
)

const checkRequestTimeout = 10 * time.Second

// LinkCheckService probes website URLs and records the outcome, both on the
// website row and in the append-only check history.
type LinkCheckService struct {
	websites repository.WebsiteRepository
	checks   repository.LinkCheckRepository
	client   *http.Client
	logger   *zap.Logger
}

// NewLinkCheckService wires the link health checker. A nil client gets a
// default with a request timeout.
func NewLinkCheckService(
	websites repository.WebsiteRepository,
	checks repository.LinkCheckRepository,
	client *http.Client,
	logger *zap.Logger,
) *LinkCheckService {
	if client == nil {
		client = &http.Client{Timeout: checkRequestTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkCheckService{
		websites: websites,
		checks:   checks,
		client:   client,
		logger:   logger,
	}
}

// Check probes one website. Only the owner or an admin may trigger a check.
// The website transitions through checking and lands on active or broken; the
// probe outcome is appended to the check history either way.
func (s *LinkCheckService) Check(ctx context.Context, actor *model.User, websiteID uint) (*model.LinkCheck, error) {
	website, err := s.websites.GetByID(ctx, websiteID)
	if err != nil {
		return nil, err
	}
	if actor == nil || (!actor.IsAdmin() && website.UserID != actor.ID) {
		return nil, ErrForbidden
	}

	if err := s.websites.SetStatus(ctx, website.ID, model.LinkStatusChecking); err != nil {
		return nil, fmt.Errorf("mark checking: %w", err)
	}

	check := s.probe(ctx, website)
	if err := s.checks.Create(ctx, check); err != nil {
		return nil, fmt.Errorf("record check: %w", err)
	}

	status := model.LinkStatusBroken
	if check.IsAccessible {
		status = model.LinkStatusActive
	}
	if err := s.websites.FinishCheck(ctx, website.ID, status, check.ResponseTime, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("finish check: %w", err)
	}

	infraprometheus.LinkChecksTotal.WithLabelValues(string(status)).Inc()
	s.logger.Debug("link check finished",
		zap.Uint("website_id", website.ID),
		zap.String("status", string(status)),
	)
	return check, nil
}

// probe performs the HTTP request and shapes a LinkCheck row. It never
// returns an error: failures become an inaccessible check record.
func (s *LinkCheckService) probe(ctx context.Context, website *model.Website) *model.LinkCheck {
	check := &model.LinkCheck{
		WebsiteID: website.ID,
		URL:       website.URL,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, website.URL, nil)
	if err != nil {
		check.ErrorMessage = err.Error()
		return check
	}
	req.Header.Set("User-Agent", "OneBookNav-LinkChecker/1.0")

	start := time.Now()
	resp, err := s.client.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	check.ResponseTime = &elapsed

	if err != nil {
		check.ErrorMessage = err.Error()
		return check
	}
	defer resp.Body.Close()

	check.StatusCode = &resp.StatusCode
	check.IsAccessible = resp.StatusCode < 400
	if !check.IsAccessible {
		check.ErrorMessage = resp.Status
	}
	return check
}

// History returns recent check records for a website, newest first. The same
// ownership gate as Check applies.
func (s *LinkCheckService) History(ctx context.Context, actor *model.User, websiteID uint, limit int) ([]model.LinkCheck, error) {
	website, err := s.websites.GetByID(ctx, websiteID)
	if err != nil {
		return nil, err
	}
	if actor == nil || (!actor.IsAdmin() && website.UserID != actor.ID) {
		return nil, ErrForbidden
	}
	if limit <= 0 {
		limit = 20
	}
	return s.checks.ListByWebsite(ctx, websiteID, limit)
}
