package model

import "time"

// Challenge is a self-directed completion record: a student picks a problem
// outside any assignment and tracks solving it. Unique per (student, cf_code).
type Challenge struct {
	ID             string          `json:"id"`
	StudentID      string          `json:"student_id"`
	CFCode         string          `json:"cf_code"`
	IsCompleted    bool            `json:"is_completed"`
	CompletionType *CompletionType `json:"completion_type,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
