package model

import "time"

// CompletionType records how a solve was classified: during the problem's
// originating contest window, or afterwards in practice.
type CompletionType string

const (
	CompletionContest CompletionType = "contest"
	CompletionNormal  CompletionType = "normal"
)

type Exercise struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CFCode       string    `json:"cf_code"`       // Immutable, validated against the judge at creation
	AssignmentID string    `json:"assignment_id"` // Immutable once set
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StudentExercise is a completion record: its existence means the student has
// completed the exercise. Unique per (student, exercise).
type StudentExercise struct {
	ID             string         `json:"id"`
	StudentID      string         `json:"student_id"`
	ExerciseID     string         `json:"exercise_id"`
	CompletionType CompletionType `json:"completion_type"`
	CreatedAt      time.Time      `json:"created_at"`
}
