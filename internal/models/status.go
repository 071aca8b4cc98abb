package models

import "time"

// StudentStatus is a named node in the status transition graph.
type StudentStatus struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StatusTransition is a directed edge declaring a legal status change.
type StatusTransition struct {
	ID           string    `db:"id" json:"id"`
	FromStatusID string    `db:"from_status_id" json:"from_status_id"`
	ToStatusID   string    `db:"to_status_id" json:"to_status_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// StatusTransitionDetail includes status names for display.
type StatusTransitionDetail struct {
	StatusTransition
	FromStatusName string `db:"from_status_name" json:"from_status_name"`
	ToStatusName   string `db:"to_status_name" json:"to_status_name"`
}
