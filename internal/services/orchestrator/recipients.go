package orchestrator

import (
	"context"
	"fmt"

	"github.com/NordCoder/Lessonbell/internal/domain/enrollment"
	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	"github.com/NordCoder/Lessonbell/internal/domain/user"
)

type RecipientResolver struct {
	users       user.Directory
	enrollments enrollment.Directory

	// expandViaProgram adds users enrolled through a program containing the
	// course to course-scoped notifications. Off until product decides.
	expandViaProgram bool
}

func NewRecipientResolver(users user.Directory, enrollments enrollment.Directory, expandViaProgram bool) *RecipientResolver {
	return &RecipientResolver{users: users, enrollments: enrollments, expandViaProgram: expandViaProgram}
}

// Resolve maps a scope to a deduplicated list of user ids in first-seen order.
// An empty result is valid.
func (r *RecipientResolver) Resolve(ctx context.Context, scope notification.Scope, targetIDs []int64, tenantID int64) ([]int64, error) {
	var set idSet

	switch scope {
	case notification.ScopeIndividual:
		set.add(targetIDs...)

	case notification.ScopeCourse:
		for _, courseID := range targetIDs {
			ids, err := r.enrollments.ActiveUserIDsByCourse(ctx, tenantID, courseID)
			if err != nil {
				return nil, fmt.Errorf("course %d enrollments: %w", courseID, err)
			}
			set.add(ids...)
			if !r.expandViaProgram {
				continue
			}
			ids, err = r.enrollments.ActiveUserIDsByCourseViaProgram(ctx, tenantID, courseID)
			if err != nil {
				return nil, fmt.Errorf("course %d program enrollments: %w", courseID, err)
			}
			set.add(ids...)
		}

	case notification.ScopeProgram:
		for _, programID := range targetIDs {
			ids, err := r.enrollments.ActiveUserIDsByProgram(ctx, tenantID, programID)
			if err != nil {
				return nil, fmt.Errorf("program %d enrollments: %w", programID, err)
			}
			set.add(ids...)
		}

	case notification.ScopeTenant:
		ids, err := r.users.ListIDsByTenant(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("tenant %d users: %w", tenantID, err)
		}
		set.add(ids...)

	default:
		return nil, fmt.Errorf("%w: scope %q", notification.ErrUnknownValue, scope)
	}

	return set.ids, nil
}

type idSet struct {
	seen map[int64]struct{}
	ids  []int64
}

func (s *idSet) add(ids ...int64) {
	if s.seen == nil {
		s.seen = make(map[int64]struct{}, len(ids))
	}
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}
