package user

import "context"

// Directory is read-only. GetByIDs omits unknown ids instead of failing.
type Directory interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*User, error)
	ListIDsByTenant(ctx context.Context, tenantID int64) ([]int64, error)
}
