package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/daily-log/internal/apperror"
	"github.com/sakif/daily-log/internal/model"
)

// newTestDB opens a fresh in-memory database for one test.
// t.Cleanup closes it when the test (or any subtest) finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts an account and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "$2a$04$fakefakefakefakefakefake"}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Email: "Winnie@tie.ust", PasswordHash: "hash"}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
	// Emails are normalized on the way in
	if user.Email != "winnie@tie.ust" {
		t.Errorf("Email = %q, want lowercased %q", user.Email, "winnie@tie.ust")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "sean@tie.ust")

	dupe := &model.User{Email: "sean@tie.ust", PasswordHash: "other"}
	err := db.Create(context.Background(), dupe)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() duplicate email error = %v, want ErrConflict", err)
	}
}

func TestGetUserByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "jac@tie.ust")

	got, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Email != "jac@tie.ust" {
		t.Errorf("Email = %q, want %q", got.Email, "jac@tie.ust")
	}
	if got.PasswordHash != created.PasswordHash {
		t.Error("GetByID() did not round-trip the password hash")
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "aloysius@tie.ust")

	// Lookup is case-insensitive
	got, err := db.GetByEmail(context.Background(), " Aloysius@TIE.ust ")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail() ID = %q, want %q", got.ID, created.ID)
	}
}

func TestGetUserByGitHubID(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Email: "oauth@tie.ust", GitHubID: 1234567}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.GetByGitHubID(context.Background(), 1234567)
	if err != nil {
		t.Fatalf("GetByGitHubID() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("GetByGitHubID() ID = %q, want %q", got.ID, user.ID)
	}

	// GitHubID 0 means "not an OAuth account" and must never match
	if _, err := db.GetByGitHubID(context.Background(), 0); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByGitHubID(0) error = %v, want ErrNotFound", err)
	}
}
