package model

import (
	"encoding/json"
	"time"
)

// LogEntry is one submitted daily record: what the user achieved today and
// what they plan for tomorrow.
//
// WHY int64 ID?
// Unlike users (xid strings), log entries use the database's integer
// primary key. Entries are only ever created through a single writer and
// never referenced by URL, so the simplest storage-assigned key wins.
//
// UserEmail is a denormalized copy of the submitter's email, captured at
// insert time so the admin table can display it without a join. There is
// no referential integrity against later identity changes — the entry
// shows the email the user had when they submitted.
//
// Entries are immutable after insert. No update or delete path exists
// anywhere in the API.
type LogEntry struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	UserEmail   string    `json:"userEmail"`
	Plan        string    `json:"plan"`
	Achievement string    `json:"achievement"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Date returns the calendar day of the entry's creation, formatted
// YYYY-MM-DD in UTC. Clients group and display entries by this value.
func (e LogEntry) Date() string {
	return e.CreatedAt.UTC().Format("2006-01-02")
}

// MarshalJSON adds the derived "date" field to the wire representation.
// The field is read-only and always consistent with createdAt, so it is
// computed at serialization time rather than stored.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	type alias LogEntry // drop methods to avoid infinite recursion
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(e), e.Date()})
}

// Submitter is one distinct (userId, userEmail) pair that has at least one
// log entry. The admin view's filter dropdown is built from these.
type Submitter struct {
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}
