package presence

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// onlineSetKey holds the IDs of users currently marked online. A shared set
// lets multiple server instances agree on presence.
const onlineSetKey = "presence:online"

// RedisStore is the Redis-backed presence store for multi-instance
// deployments.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SetOnline(ctx context.Context, userID int64, online bool) error {
	member := strconv.FormatInt(userID, 10)
	var err error
	if online {
		err = s.client.SAdd(ctx, onlineSetKey, member).Err()
	} else {
		err = s.client.SRem(ctx, onlineSetKey, member).Err()
	}
	if err != nil {
		return fmt.Errorf("set online: %w", err)
	}
	return nil
}

func (s *RedisStore) ListOnline(ctx context.Context) ([]int64, error) {
	members, err := s.client.SMembers(ctx, onlineSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list online: %w", err)
	}
	out := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}
