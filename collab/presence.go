package collab

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// presenceWindow is how long a user counts as active after their last touch.
const presenceWindow = 30 * time.Second

func presenceKey(bookID int64) string {
	return fmt.Sprintf("book:%d:presence", bookID)
}

// Touch records that the user is currently editing the book.
func (c *Client) Touch(ctx context.Context, bookID, userID int64) error {
	key := presenceKey(bookID)
	now := time.Now()
	pipe := c.internal.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.Unix()), Member: strconv.FormatInt(userID, 10)})
	pipe.Expire(ctx, key, 2*presenceWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("touch presence: %w", err)
	}
	return nil
}

// Active returns the ids of users seen within the presence window,
// evicting stale entries as a side effect.
func (c *Client) Active(ctx context.Context, bookID int64) ([]int64, error) {
	key := presenceKey(bookID)
	cutoff := time.Now().Add(-presenceWindow).Unix()

	if err := c.internal.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff-1, 10)).Err(); err != nil {
		return nil, fmt.Errorf("evict stale presence: %w", err)
	}
	members, err := c.internal.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read presence: %w", err)
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
