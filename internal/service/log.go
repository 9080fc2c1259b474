// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and write responses; services validate and enforce
// the rules; repositories talk to the database. The service receives the
// repository as an interface, so tests inject an in-memory mock and the
// HTTP layer never appears in a business-logic test.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/daily-log/internal/apperror"
	"github.com/sakif/daily-log/internal/model"
	"github.com/sakif/daily-log/internal/realtime"
	"github.com/sakif/daily-log/internal/repository"
)

const (
	// AdminPageSize is the fixed page size of the admin table.
	AdminPageSize = 10

	// MaxFieldLength bounds the two free-text fields. Generous — these
	// are a few sentences about one work day, not documents.
	MaxFieldLength = 10000
)

// LogService handles submission and retrieval of daily log entries.
//
// After every successful insert it publishes a change event on the hub,
// which is what keeps history views live without polling.
type LogService struct {
	logs   repository.LogRepository
	hub    *realtime.Hub
	logger *slog.Logger
}

// NewLogService creates a LogService.
func NewLogService(logs repository.LogRepository, hub *realtime.Hub, logger *slog.Logger) *LogService {
	return &LogService{
		logs:   logs,
		hub:    hub,
		logger: logger,
	}
}

// Submit validates and saves one daily log entry for the given identity.
//
// Both fields are mandatory: an entry is "what I did today" plus "what I
// plan tomorrow", and a blank half is a blank entry. (Two ancestors of
// this form disagreed on which field was optional; requiring both is the
// policy here.) Validation rejects before any insert is issued.
//
// The owner (userID, userEmail) comes from the authenticated session via
// the handler — never from client-supplied body fields — so an entry's
// userId always resolves to the identity that created it.
func (s *LogService) Submit(ctx context.Context, userID, userEmail, plan, achievement string) (*model.LogEntry, error) {
	plan = strings.TrimSpace(plan)
	achievement = strings.TrimSpace(achievement)

	if plan == "" || achievement == "" {
		return nil, apperror.ValidationFailed("",
			"please fill out both what you did today and your plan for tomorrow")
	}
	if len(plan) > MaxFieldLength {
		return nil, apperror.ValidationFailed("plan",
			fmt.Sprintf("plan must be %d characters or less", MaxFieldLength))
	}
	if len(achievement) > MaxFieldLength {
		return nil, apperror.ValidationFailed("achievement",
			fmt.Sprintf("achievement must be %d characters or less", MaxFieldLength))
	}

	entry := &model.LogEntry{
		UserID:      userID,
		UserEmail:   userEmail,
		Plan:        plan,
		Achievement: achievement,
	}

	// The repository assigns ID and the creation timestamp.
	if err := s.logs.Insert(ctx, entry); err != nil {
		s.logger.Error("failed to insert log entry",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("submitting log entry: %w", err)
	}

	s.logger.Info("log entry submitted",
		slog.Int64("id", entry.ID),
		slog.String("userID", userID),
	)

	// Wake up every live view watching this user's rows (and the
	// unfiltered admin scope).
	s.hub.Publish(realtime.Event{UserID: userID})

	return entry, nil
}

// History returns all of one user's entries, newest first. No pagination:
// the list is bounded by one entry per day per user.
func (s *LogService) History(ctx context.Context, userID string) ([]model.LogEntry, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}

	entries, err := s.logs.List(ctx, repository.LogQuery{UserID: userID})
	if err != nil {
		s.logger.Error("failed to list history",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing history: %w", err)
	}

	return entries, nil
}

// LogPage is one page of the admin table plus the numbers the client
// needs for its pagination controls.
type LogPage struct {
	Logs       []model.LogEntry `json:"logs"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	TotalCount int              `json:"totalCount"`
}

// AdminList returns one page of entries across all users, optionally
// filtered to a single userId, newest first.
//
// Page p covers row offsets [(p-1)*10, p*10 - 1]. The filtered count is
// fetched in the same call so totalPages is always consistent with the
// rows shown: totalPages = ceil(count / 10), 0 when no rows match.
// A page below 1 is clamped to 1; a page past the end simply returns an
// empty row list (the client disables Next at totalPages, so this only
// happens when rows were deleted out from under a stale client).
func (s *LogService) AdminList(ctx context.Context, page int, filterUserID string) (*LogPage, error) {
	if page < 1 {
		page = 1
	}

	count, err := s.logs.Count(ctx, filterUserID)
	if err != nil {
		s.logger.Error("failed to count log entries", slog.String("error", err.Error()))
		return nil, fmt.Errorf("counting log entries: %w", err)
	}

	entries, err := s.logs.List(ctx, repository.LogQuery{
		UserID: filterUserID,
		Limit:  AdminPageSize,
		Offset: (page - 1) * AdminPageSize,
	})
	if err != nil {
		s.logger.Error("failed to list log page",
			slog.Int("page", page),
			slog.String("filter", filterUserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing log page: %w", err)
	}

	return &LogPage{
		Logs:       entries,
		Page:       page,
		TotalPages: (count + AdminPageSize - 1) / AdminPageSize,
		TotalCount: count,
	}, nil
}

// Submitters returns the distinct (userId, userEmail) pairs for the admin
// filter dropdown, sorted by email.
func (s *LogService) Submitters(ctx context.Context) ([]model.Submitter, error) {
	submitters, err := s.logs.DistinctSubmitters(ctx)
	if err != nil {
		s.logger.Error("failed to list submitters", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing submitters: %w", err)
	}
	return submitters, nil
}
