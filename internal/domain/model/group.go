package model

import "time"

type Group struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	OwnerCoachID string    `json:"owner_coach_id"`
	InviteCode   string    `json:"invite_code,omitempty"` // Shown to the owning coach only
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GroupMembership links a student to a group. Unique per (student, group),
// enforced by the database.
type GroupMembership struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	GroupID   string    `json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}
