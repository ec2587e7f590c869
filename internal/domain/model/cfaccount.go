package model

import "time"

// CFAccount links a student to their Codeforces handle. IsVerified starts
// false and only flips to true through the account-ownership verification
// protocol; relinking to a different handle resets it.
type CFAccount struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	Handle     string    `json:"handle"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
