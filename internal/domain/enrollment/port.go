package enrollment

import "context"

// Directory lists user ids holding an active enrollment. Results may be empty.
type Directory interface {
	ActiveUserIDsByCourse(ctx context.Context, tenantID, courseID int64) ([]int64, error)
	ActiveUserIDsByProgram(ctx context.Context, tenantID, programID int64) ([]int64, error)
	// ActiveUserIDsByCourseViaProgram covers enrollments in programs that contain the course.
	ActiveUserIDsByCourseViaProgram(ctx context.Context, tenantID, courseID int64) ([]int64, error)
}
