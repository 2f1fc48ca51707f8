package worker

// retry_cron.go
// Failed jobs wait in a sorted set per queue (retry:{queue}) scored by the
// unix time of their next attempt. A background goroutine moves due jobs
// back onto their queue.

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	RetryPrefix       = "retry:"
	retryTickInterval = 5 * time.Second
	retryBatchSize    = 50
)

func scheduleRetry(ctx context.Context, rdb *redis.Client, queue string, encoded []byte, at time.Time) error {
	return rdb.ZAdd(ctx, RetryPrefix+queue, redis.Z{Score: float64(at.Unix()), Member: encoded}).Err()
}

// StartRetryCron launches a background goroutine that ticks every few
// seconds and requeues jobs whose retry time has passed.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, rdb *redis.Client, queues []string) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case now := <-ticker.C:
				for _, q := range queues {
					if n, err := requeueDue(ctx, rdb, q, now); err != nil {
						log.Error().Err(err).Str("queue", q).Msg("retry_cron: requeue failed")
					} else if n > 0 {
						log.Info().Str("queue", q).Int("jobs", n).Msg("retry_cron: jobs requeued")
					}
				}
			}
		}
	}()
}

// requeueDue moves up to retryBatchSize due jobs of queue back onto it.
// ZRem decides ownership so two processes never requeue the same job.
func requeueDue(ctx context.Context, rdb *redis.Client, queue string, now time.Time) (int, error) {
	key := RetryPrefix + queue
	due, err := rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: retryBatchSize,
	}).Result()
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, raw := range due {
		removed, err := rdb.ZRem(ctx, key, raw).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := rdb.LPush(ctx, queue, raw).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}
