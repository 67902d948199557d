package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PlayerKeyPrefix = "player:%s"
	PlayerFamily    = "player"
)

const PlayerTTL = 5 * time.Minute

func PlayerKey(playerID string) string {
	return fmt.Sprintf(PlayerKeyPrefix, playerID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidatePlayer(ctx context.Context, playerID string) {
	Invalidate(ctx, PlayerKey(playerID))
}
