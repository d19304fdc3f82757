// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// The JSON form of a User is the public view returned by /auth/signup,
// /auth/login and /auth/me. PasswordHash is tagged "-" so it can never leak
// through an encoder, no matter which handler writes the struct.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`     // trimmed and lowercased before storage
	FullName     string    `json:"full_name"` // trimmed
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
