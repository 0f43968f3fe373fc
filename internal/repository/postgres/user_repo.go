package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Lessonbell/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

var _ user.Directory = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const (
	qUserByID = `
SELECT id, tenant_id, email, phone, preferred_language
FROM users
WHERE id = $1;`

	qUsersByIDs = `
SELECT id, tenant_id, email, phone, preferred_language
FROM users
WHERE id = ANY($1);`

	qUserIDsByTenant = `
SELECT id
FROM users
WHERE tenant_id = $1 AND is_active = TRUE
ORDER BY id;`
)

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs returns the users found; missing ids are simply absent from the map.
func (r *UserRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*user.User, error) {
	out := make(map[int64]*user.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qUsersByIDs, ids)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u user.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out[u.ID] = &u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *UserRepo) ListIDsByTenant(ctx context.Context, tenantID int64) ([]int64, error) {
	return queryIDs(ctx, r.db, qUserIDsByTenant, tenantID)
}

func scanUser(row pgx.Row, out *user.User) error {
	var lang *string
	if err := row.Scan(&out.ID, &out.TenantID, &out.Email, &out.Phone, &lang); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	if lang != nil {
		out.Language = *lang
	}
	return nil
}

func queryIDs(ctx context.Context, db *DB, q string, args ...any) ([]int64, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect ids: %w", err)
	}
	return ids, nil
}
