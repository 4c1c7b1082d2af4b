// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// The ID is an internal xid generated at signup and never changes afterwards.
// Email is unique across all users and is stored lower-cased so that
// "Ada@Example.com" and "ada@example.com" are the same identity.
//
// WHY json:"-" ON PasswordHash?
// The hash must never leave the server. The "-" tag tells encoding/json to
// skip the field entirely, so even a handler that accidentally writes a whole
// User cannot leak it.
//
// GitHubID is zero for accounts created with email/password that never
// linked a GitHub identity.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"githubId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is the bearer capability a client holds after signup or login.
//
// The token is opaque to everything except the identity layer that issued it.
// Services receive a Session explicitly for every call that needs
// authorization instead of reading ambient state.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}
