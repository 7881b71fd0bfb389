// Package models defines the account records persisted by the store.
package models

import "time"

// User is an identity and credential record. PasswordHash is never
// serialised to clients.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
