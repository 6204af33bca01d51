package presence

import "context"

// Store persists the durable online flag per user. Implementations must
// tolerate users that have no prior record (auto-create on first use).
type Store interface {
	SetOnline(ctx context.Context, userID int64, online bool) error
	ListOnline(ctx context.Context) ([]int64, error)
}
