package postgres

import (
	"context"

	"github.com/NordCoder/Lessonbell/internal/domain/enrollment"
)

var _ enrollment.Directory = (*EnrollmentRepo)(nil)

type EnrollmentRepo struct{ db *DB }

func NewEnrollmentRepo(db *DB) *EnrollmentRepo { return &EnrollmentRepo{db: db} }

const (
	qEnrolledByCourse = `
SELECT DISTINCT e.user_id
FROM enrollments e
JOIN products p ON p.id = e.product_id
WHERE e.tenant_id = $1
  AND e.status = 'active'
  AND p.course_id = $2
ORDER BY e.user_id;`

	qEnrolledByProgram = `
SELECT DISTINCT e.user_id
FROM enrollments e
JOIN products p ON p.id = e.product_id
WHERE e.tenant_id = $1
  AND e.status = 'active'
  AND p.program_id = $2
ORDER BY e.user_id;`

	qEnrolledByCourseViaProgram = `
SELECT DISTINCT e.user_id
FROM enrollments e
JOIN products p ON p.id = e.product_id
JOIN program_courses pc ON pc.program_id = p.program_id
WHERE e.tenant_id = $1
  AND e.status = 'active'
  AND pc.course_id = $2
ORDER BY e.user_id;`
)

func (r *EnrollmentRepo) ActiveUserIDsByCourse(ctx context.Context, tenantID, courseID int64) ([]int64, error) {
	return queryIDs(ctx, r.db, qEnrolledByCourse, tenantID, courseID)
}

func (r *EnrollmentRepo) ActiveUserIDsByProgram(ctx context.Context, tenantID, programID int64) ([]int64, error) {
	return queryIDs(ctx, r.db, qEnrolledByProgram, tenantID, programID)
}

func (r *EnrollmentRepo) ActiveUserIDsByCourseViaProgram(ctx context.Context, tenantID, courseID int64) ([]int64, error) {
	return queryIDs(ctx, r.db, qEnrolledByCourseViaProgram, tenantID, courseID)
}
