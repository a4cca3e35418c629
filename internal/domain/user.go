package domain

import "time"

// User represents a registered account. Username keeps its original casing,
// email is stored lower-cased.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
