package models

import "time"

// Course represents a catalog course.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Credits      int       `db:"credits" json:"credits"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Description  *string   `db:"description" json:"description,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// PrerequisiteIDs holds prerequisite course ids in declared order.
	PrerequisiteIDs []string `json:"prerequisite_ids"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	DepartmentID string
	IsActive     *bool
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
