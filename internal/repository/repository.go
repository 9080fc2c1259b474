// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the real implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/daily-log/internal/model"
)

// LogQuery selects a window of log entries.
//
// UserID filters to a single owner; empty means all owners (admin scope).
// Results are always ordered created_at DESC — newest first. Limit <= 0
// means no limit (the history view fetches a user's entire list, which is
// bounded by one entry per day).
type LogQuery struct {
	UserID string
	Limit  int
	Offset int
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByGitHubID resolves an OAuth identity. Returns NotFound for
	// GitHub accounts that never signed in here.
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
}

// LogRepository persists daily log entries.
//
// Entries are insert-only: no Update or Delete methods exist, matching
// the API surface. Count and DistinctSubmitters exist for the admin
// table's pagination math and filter dropdown.
type LogRepository interface {
	Insert(ctx context.Context, entry *model.LogEntry) error
	List(ctx context.Context, q LogQuery) ([]model.LogEntry, error)
	Count(ctx context.Context, userID string) (int, error)
	DistinctSubmitters(ctx context.Context) ([]model.Submitter, error)
}
