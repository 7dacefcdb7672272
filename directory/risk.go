//go:generate go run go.uber.org/mock/mockgen -source=risk.go -destination=../mocks/mock_risk.go -package=mocks
package directory

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// RiskDirectory answers whether an identity may hold a connection.
// Checked during the handshake; out-of-band changes arrive through the
// risk event watcher.
type RiskDirectory interface {
	IsBanned(ctx context.Context, userID string) (bool, error)
	IsKicked(ctx context.Context, userID, deviceID string) (bool, error)
}

const (
	banKeyPrefix  = "risk:ban:user:"
	kickKeyPrefix = "auth:kick:"
)

// RedisRisk probes the flag keys the risk service maintains.
type RedisRisk struct {
	client *redis.Client
}

var _ RiskDirectory = (*RedisRisk)(nil)

func NewRedisRisk(client *redis.Client) *RedisRisk {
	return &RedisRisk{client: client}
}

func (d *RedisRisk) IsBanned(ctx context.Context, userID string) (bool, error) {
	n, err := d.client.Exists(ctx, banKeyPrefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("ban check for %s: %w", userID, err)
	}
	return n > 0, nil
}

func (d *RedisRisk) IsKicked(ctx context.Context, userID, deviceID string) (bool, error) {
	n, err := d.client.Exists(ctx, kickKeyPrefix+userID+":"+deviceID).Result()
	if err != nil {
		return false, fmt.Errorf("kick check for %s/%s: %w", userID, deviceID, err)
	}
	return n > 0, nil
}
