package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sakif/daily-log/internal/model"
	"github.com/sakif/daily-log/internal/repository"
)

// insertTestLog inserts one entry for the given user.
func insertTestLog(t *testing.T, db *DB, user *model.User, plan, achievement string) *model.LogEntry {
	t.Helper()
	entry := &model.LogEntry{
		UserID:      user.ID,
		UserEmail:   user.Email,
		Plan:        plan,
		Achievement: achievement,
	}
	if err := db.Insert(context.Background(), entry); err != nil {
		t.Fatalf("failed to insert test log: %v", err)
	}
	return entry
}

func TestInsert(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "winnie@tie.ust")

	entry := &model.LogEntry{
		UserID:      user.ID,
		UserEmail:   user.Email,
		Plan:        "P",
		Achievement: "A",
	}
	if err := db.Insert(context.Background(), entry); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	// The storage layer owns the ID and the creation timestamp
	if entry.ID == 0 {
		t.Error("Insert() did not set entry.ID")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("Insert() did not set entry.CreatedAt")
	}
}

func TestInsert_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "winnie@tie.ust")
	inserted := insertTestLog(t, db, user, "P", "A")

	entries, err := db.List(context.Background(), repository.LogQuery{UserID: user.ID})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(entries))
	}

	got := entries[0]
	if got.Plan != "P" || got.Achievement != "A" {
		t.Errorf("round-trip = (%q, %q), want (P, A)", got.Plan, got.Achievement)
	}
	if got.UserID != user.ID || got.UserEmail != user.Email {
		t.Errorf("round-trip owner = (%q, %q), want (%q, %q)",
			got.UserID, got.UserEmail, user.ID, user.Email)
	}
	// date is the calendar day of insertion, server-assigned
	wantDate := inserted.CreatedAt.UTC().Format("2006-01-02")
	if got.Date() != wantDate {
		t.Errorf("Date() = %q, want %q", got.Date(), wantDate)
	}
}

func TestList_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "winnie@tie.ust")

	first := insertTestLog(t, db, user, "plan 1", "did 1")
	time.Sleep(2 * time.Millisecond)
	second := insertTestLog(t, db, user, "plan 2", "did 2")

	entries, err := db.List(context.Background(), repository.LogQuery{UserID: user.ID})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}
	if entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Errorf("List() order = [%d, %d], want newest first [%d, %d]",
			entries[0].ID, entries[1].ID, second.ID, first.ID)
	}
}

func TestList_FiltersByUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@tie.ust")
	bob := createTestUser(t, db, "bob@tie.ust")

	insertTestLog(t, db, alice, "a-plan", "a-done")
	insertTestLog(t, db, bob, "b-plan", "b-done")

	// Scoped to one user — the other user's rows must never appear
	entries, err := db.List(context.Background(), repository.LogQuery{UserID: alice.ID})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List(alice) returned %d entries, want 1", len(entries))
	}
	if entries[0].UserID != alice.ID {
		t.Errorf("List(alice) returned a row owned by %q", entries[0].UserID)
	}

	// Empty UserID = admin scope, all rows
	all, err := db.List(context.Background(), repository.LogQuery{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(all) returned %d entries, want 2", len(all))
	}
}

func TestList_Pagination(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "winnie@tie.ust")

	var ids []int64
	for i := 0; i < 25; i++ {
		e := insertTestLog(t, db, user, fmt.Sprintf("plan %d", i), fmt.Sprintf("did %d", i))
		ids = append(ids, e.ID)
	}

	// Page 2 of page-size 10 is rows [10, 19] in newest-first order
	page, err := db.List(context.Background(), repository.LogQuery{Limit: 10, Offset: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page) != 10 {
		t.Fatalf("List(limit=10, offset=10) returned %d rows, want 10", len(page))
	}
	// Newest first: offset 10 starts at the 11th-newest = ids[14]
	if page[0].ID != ids[14] {
		t.Errorf("page starts at id %d, want %d", page[0].ID, ids[14])
	}

	// Last page is a partial page of 5
	last, err := db.List(context.Background(), repository.LogQuery{Limit: 10, Offset: 20})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(last) != 5 {
		t.Errorf("List(limit=10, offset=20) returned %d rows, want 5", len(last))
	}
}

func TestCount(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@tie.ust")
	bob := createTestUser(t, db, "bob@tie.ust")

	for i := 0; i < 3; i++ {
		insertTestLog(t, db, alice, "p", "a")
	}
	insertTestLog(t, db, bob, "p", "a")

	total, err := db.Count(context.Background(), "")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 4 {
		t.Errorf("Count(all) = %d, want 4", total)
	}

	aliceCount, err := db.Count(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if aliceCount != 3 {
		t.Errorf("Count(alice) = %d, want 3", aliceCount)
	}
}

func TestDistinctSubmitters(t *testing.T) {
	db := newTestDB(t)
	// Insert out of email order to verify sorting
	carol := createTestUser(t, db, "carol@tie.ust")
	alice := createTestUser(t, db, "alice@tie.ust")
	createTestUser(t, db, "lurker@tie.ust") // never submits

	insertTestLog(t, db, carol, "p1", "a1")
	insertTestLog(t, db, carol, "p2", "a2") // second entry — must not duplicate
	insertTestLog(t, db, alice, "p", "a")

	submitters, err := db.DistinctSubmitters(context.Background())
	if err != nil {
		t.Fatalf("DistinctSubmitters() error = %v", err)
	}

	if len(submitters) != 2 {
		t.Fatalf("DistinctSubmitters() returned %d, want 2 (each submitter exactly once)", len(submitters))
	}
	// Sorted by email
	if submitters[0].UserEmail != "alice@tie.ust" || submitters[1].UserEmail != "carol@tie.ust" {
		t.Errorf("DistinctSubmitters() order = [%s, %s], want [alice, carol]",
			submitters[0].UserEmail, submitters[1].UserEmail)
	}
	if submitters[0].UserID != alice.ID {
		t.Errorf("submitter userId = %q, want %q", submitters[0].UserID, alice.ID)
	}
}
