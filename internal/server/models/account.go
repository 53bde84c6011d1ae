package models

import "time"

type Account struct {
	ID           string
	FirstName    string
	LastName     string
	UserName     string
	PasswordHash string
	IsMember     bool
	IsAdmin      bool
	CreatedAt    time.Time
}

// DisplayName is the full name shown in the page header.
func (a *Account) DisplayName() string {
	return a.FirstName + " " + a.LastName
}
