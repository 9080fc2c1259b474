// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// The primary sign-in method is email + password (bcrypt hash stored in
// PasswordHash). Accounts created through the GitHub OAuth flow have an
// empty PasswordHash and a non-zero GitHubID instead — they can only sign
// in via OAuth.
//
// The internal ID is an xid string. Log entries reference it as their
// owner; it is opaque to clients and never changes once assigned.
//
// PasswordHash is tagged `json:"-"` so it can never leak into an API
// response, no matter which handler serializes the struct.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"-"` // 0 unless the account was created via OAuth
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
