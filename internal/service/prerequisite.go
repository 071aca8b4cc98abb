package service

import (
	"context"

	"github.com/bktrung/academic-records-api/internal/models"
)

type completedEnrollmentReader interface {
	ListDetailsByStudent(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
}

// PrerequisiteResolver derives a student's completed-course set from
// enrollment history and computes missing prerequisites.
type PrerequisiteResolver struct {
	enrollments completedEnrollmentReader
}

// NewPrerequisiteResolver constructs a PrerequisiteResolver.
func NewPrerequisiteResolver(enrollments completedEnrollmentReader) *PrerequisiteResolver {
	return &PrerequisiteResolver{enrollments: enrollments}
}

// CompletedCourseIDs returns the set of course ids the student has completed.
// Multiple completed attempts of the same course collapse into one entry.
func (r *PrerequisiteResolver) CompletedCourseIDs(ctx context.Context, studentID string) (map[string]struct{}, error) {
	details, err := r.enrollments.ListDetailsByStudent(ctx, studentID, models.EnrollmentStatusCompleted)
	if err != nil {
		return nil, err
	}
	completed := make(map[string]struct{}, len(details))
	for _, d := range details {
		completed[d.CourseID] = struct{}{}
	}
	return completed, nil
}

// Missing returns the course's prerequisite ids absent from the completed
// set, preserving the declared prerequisite order for error reporting.
func (r *PrerequisiteResolver) Missing(course *models.Course, completed map[string]struct{}) []string {
	var missing []string
	for _, id := range course.PrerequisiteIDs {
		if _, ok := completed[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
