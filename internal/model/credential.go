package model

// Credential is an email/password pair captured for a single login or
// registration attempt. It is never persisted.
type Credential struct {
	Email    string
	Password string
}
