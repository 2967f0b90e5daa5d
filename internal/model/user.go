package model

import "time"

// User mirrors the users table. Rows are created by the Clerk webhook or the
// adduser CLI; the blog itself never registers users.
type User struct {
	ID        UserID
	Name      string
	Email     string
	CreatedAt time.Time
}
