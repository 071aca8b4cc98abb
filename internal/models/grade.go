package models

import "time"

// Grade stores scores for a single enrollment. At most one grade exists per
// enrollment; letter grade and grade points are derived from the total score.
type Grade struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	MidtermScore *float64  `db:"midterm_score" json:"midterm_score,omitempty"`
	FinalScore   *float64  `db:"final_score" json:"final_score,omitempty"`
	TotalScore   float64   `db:"total_score" json:"total_score"`
	LetterGrade  string    `db:"letter_grade" json:"letter_grade"`
	GradePoints  float64   `db:"grade_points" json:"grade_points"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GradedEnrollment joins an enrollment with its grade and course context for
// transcript assembly. Grade fields are nil when no grade record exists.
type GradedEnrollment struct {
	EnrollmentID string           `db:"enrollment_id" json:"enrollment_id"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt   time.Time        `db:"enrolled_at" json:"enrolled_at"`
	CourseID     string           `db:"course_id" json:"course_id"`
	CourseCode   string           `db:"course_code" json:"course_code"`
	CourseName   string           `db:"course_name" json:"course_name"`
	Credits      int              `db:"credits" json:"credits"`
	TotalScore   *float64         `db:"total_score" json:"total_score,omitempty"`
	GradePoints  *float64         `db:"grade_points" json:"grade_points,omitempty"`
}
