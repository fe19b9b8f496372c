package model

import "time"

// User is an account registered with the local identity provider.
type User struct {
	CreatedAt    time.Time
	ID           string
	Email        string
	PasswordHash string // bcrypt; empty for accounts created through Google
	Provider     string
}
