package models

import "time"

// ActivationToken is a single-use proof of email ownership. UserID is a weak
// reference: the owning user may no longer exist when the token is redeemed.
type ActivationToken struct {
	ID          string
	Value       string
	UserID      string
	HasBeenUsed bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
