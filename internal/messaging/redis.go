package messaging

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"scrappy/internal/controller"
	"scrappy/internal/logger"
	"scrappy/internal/types"
)

const (
	RobotHash      = "scrappy:robot"
	ControllerHash = "scrappy:controller"
	GamesChannel   = "scrappy:games"
)

// RedisClient publishes device state as Redis hashes and notifies
// subscribers on a channel of the same name.
type RedisClient struct {
	client *redis.Client
	logger *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

func NewRedisClient(addr string, db int, l *logger.Logger) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
		logger: l.WithTag("redis"),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
}

func (r *RedisClient) Connect() error {
	r.logger.Infof("Attempting to connect to Redis at %s", r.client.Options().Addr)

	if err := r.client.Ping(r.ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection failed: %w", err)
	}
	r.logger.Infof("Successfully connected to Redis")
	return nil
}

// publishHash atomically updates the hash fields and publishes field on
// the hash's channel.
func (r *RedisClient) publishHash(hash string, fields map[string]interface{}, payload string) error {
	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, hash, fields)
	pipe.Publish(r.ctx, hash, payload)
	_, err := pipe.Exec(r.ctx)
	return err
}

func (r *RedisClient) PublishRobotState(state types.RobotState, level int, difficulty types.Difficulty) error {
	r.logger.Debugf("Publishing robot state: %s", state)
	err := r.publishHash(RobotHash, stateFields(string(state), level, difficulty, r.now()), "state")
	if err != nil {
		return fmt.Errorf("failed to publish robot state: %w", err)
	}
	return nil
}

func (r *RedisClient) PublishControllerPhase(phase types.Phase, level int, difficulty types.Difficulty) error {
	r.logger.Debugf("Publishing controller phase: %s", phase)
	err := r.publishHash(ControllerHash, stateFields(string(phase), level, difficulty, r.now()), "state")
	if err != nil {
		return fmt.Errorf("failed to publish controller phase: %w", err)
	}
	return nil
}

// RecordGame announces a finished game on GamesChannel as
// "<outcome>:<difficulty>:<level>".
func (r *RedisClient) RecordGame(ctx context.Context, rec controller.GameRecord) error {
	payload := fmt.Sprintf("%s:%s:%d", rec.Outcome, rec.Difficulty, rec.Level)
	if err := r.client.Publish(ctx, GamesChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish game outcome: %w", err)
	}
	return nil
}

// ReadState returns the stored fields of hash.
func (r *RedisClient) ReadState(ctx context.Context, hash string) (map[string]string, error) {
	fields, err := r.client.HGetAll(ctx, hash).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", hash, err)
	}
	return fields, nil
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	r.cancel()
	return r.client.Close()
}

func stateFields(state string, level int, difficulty types.Difficulty, now time.Time) map[string]interface{} {
	fields := map[string]interface{}{
		"state":           state,
		"level":           strconv.Itoa(level),
		"state:timestamp": now.Format(time.RFC3339),
	}
	if difficulty.Valid() {
		fields["difficulty"] = difficulty.String()
	}
	return fields
}
