// internal/history/recorder.go
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yuvrajgitacc/study-verse/internal/battle"
)

// DefaultQueueName is the Redis list the platform's history consumer reads.
const DefaultQueueName = "battle_results"

// Recorder pushes finished battle records onto a Redis queue so the rest of
// the study platform can show match history without coupling to this
// service. A nil Recorder is valid and drops records.
type Recorder struct {
	rdb    *redis.Client
	queue  string
	logger *logrus.Logger
}

// Connect dials Redis and returns a ready Recorder.
func Connect(addr string, db int, queue string, logger *logrus.Logger) (*Recorder, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &Recorder{rdb: rdb, queue: queue, logger: logger}, nil
}

// Record serializes rec and RPushes it to the queue. Failures are logged
// and swallowed; history is best-effort and must never affect a room.
func (r *Recorder) Record(ctx context.Context, rec battle.BattleRecord) {
	if r == nil || r.rdb == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		r.logger.Warnf("history: marshal record for room %s: %v", rec.RoomCode, err)
		return
	}
	if err := r.rdb.RPush(ctx, r.queue, data).Err(); err != nil {
		r.logger.Warnf("history: rpush record for room %s: %v", rec.RoomCode, err)
	}
}

// Close releases the underlying Redis connection.
func (r *Recorder) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
