package models

// TranscriptEntry is one course line on a transcript, built from the
// selected enrollment's grade.
type TranscriptEntry struct {
	CourseCode  string  `json:"course_code"`
	CourseName  string  `json:"course_name"`
	Credits     int     `json:"credits"`
	TotalScore  float64 `json:"total_score"`
	LetterGrade string  `json:"letter_grade"`
	GradePoints float64 `json:"grade_points"`
}

// Transcript aggregates per-course grades with weighted GPA on both the
// 10-point and 4-point scales.
type Transcript struct {
	StudentID    string            `json:"student_id"`
	StudentCode  string            `json:"student_code"`
	StudentName  string            `json:"student_name"`
	Entries      []TranscriptEntry `json:"entries"`
	TotalCredits int               `json:"total_credits"`
	GPA10        float64           `json:"gpa_10"`
	GPA4         float64           `json:"gpa_4"`
}
