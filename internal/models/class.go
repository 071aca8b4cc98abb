package models

import "time"

// Bounds for schedule slot fields. Days follow the 2..7 convention
// (Monday through Saturday); periods are discrete blocks within a day.
const (
	MinDayOfWeek = 2
	MaxDayOfWeek = 7
	MinPeriod    = 1
	MaxPeriod    = 10
)

// ScheduleSlot is a single meeting block of a class.
type ScheduleSlot struct {
	DayOfWeek   int    `db:"day_of_week" json:"day_of_week" validate:"required,min=2,max=7"`
	StartPeriod int    `db:"start_period" json:"start_period" validate:"required,min=1,max=10"`
	EndPeriod   int    `db:"end_period" json:"end_period" validate:"required,min=1,max=10"`
	Classroom   string `db:"classroom" json:"classroom" validate:"required"`
}

// Class represents a scheduled offering of a course for a term.
type Class struct {
	ID            string    `db:"id" json:"id"`
	Code          string    `db:"code" json:"code"`
	CourseID      string    `db:"course_id" json:"course_id"`
	AcademicYear  string    `db:"academic_year" json:"academic_year"`
	Semester      int       `db:"semester" json:"semester"`
	Instructor    string    `db:"instructor" json:"instructor"`
	MaxCapacity   int       `db:"max_capacity" json:"max_capacity"`
	EnrolledCount int       `db:"enrolled_count" json:"enrolled_count"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	Schedule []ScheduleSlot `json:"schedule"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	CourseID     string
	AcademicYear string
	Semester     int
	IsActive     *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// SlotConflict describes one conflicting pair of schedule slots.
type SlotConflict struct {
	CandidateSlot ScheduleSlot `json:"candidate_slot"`
	ExistingSlot  ScheduleSlot `json:"existing_slot"`
	ClassCode     string       `json:"class_code,omitempty"`
}

// ScheduleConflictError is returned when a schedule collides internally or
// with an existing class.
type ScheduleConflictError struct {
	Message  string       `json:"message"`
	Conflict SlotConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
