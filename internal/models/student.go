package models

import "time"

// Student represents a registered student.
type Student struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	StatusID     string    `db:"status_id" json:"status_id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	EnrolledYear int       `db:"enrolled_year" json:"enrolled_year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail enriches Student with status and department names.
type StudentDetail struct {
	Student
	StatusName     string `db:"status_name" json:"status_name"`
	DepartmentName string `db:"department_name" json:"department_name"`
}

// StudentFilter defines filter criteria for listing students.
type StudentFilter struct {
	StatusID     string
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
