package models

import "time"

// Semester holds the calendar windows for one academic term. The drop
// deadline must fall between registration end and semester end.
type Semester struct {
	ID                string    `db:"id" json:"id"`
	AcademicYear      string    `db:"academic_year" json:"academic_year"`
	Semester          int       `db:"semester" json:"semester"`
	RegistrationStart time.Time `db:"registration_start" json:"registration_start"`
	RegistrationEnd   time.Time `db:"registration_end" json:"registration_end"`
	DropDeadline      time.Time `db:"drop_deadline" json:"drop_deadline"`
	StartDate         time.Time `db:"start_date" json:"start_date"`
	EndDate           time.Time `db:"end_date" json:"end_date"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// SemesterFilter defines filters for listing semesters.
type SemesterFilter struct {
	AcademicYear string
	Semester     int
	Page         int
	PageSize     int
}
