package preference

import "context"

type Repo interface {
	// Get returns nil, nil when the user has no stored preferences.
	Get(ctx context.Context, userID, tenantID int64) (*Preferences, error)
	ClearPushSubscription(ctx context.Context, userID, tenantID int64) error
}
