package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	companion "github.com/kitsuneworks/companion-engine-go"
)

// RedisLongTermStore implements companion.LongTermStore on Redis lists.
// Each session gets a chronological log list plus a durable list holding
// the high-importance memories that outlive purges.
//
// Keys: "{prefix}:{session}:log" and "{prefix}:{session}:durable".
type RedisLongTermStore struct {
	client    redis.UniversalClient
	sessionID string
	prefix    string
}

// RedisConfig configures the Redis long-term store.
type RedisConfig struct {
	Prefix string // key prefix, default "companion"
}

// NewRedisLongTermStore creates a store scoped to one session.
func NewRedisLongTermStore(client redis.UniversalClient, sessionID string, config ...RedisConfig) *RedisLongTermStore {
	cfg := RedisConfig{Prefix: "companion"}
	if len(config) > 0 && config[0].Prefix != "" {
		cfg = config[0]
	}
	return &RedisLongTermStore{
		client:    client,
		sessionID: sessionID,
		prefix:    cfg.Prefix,
	}
}

var _ companion.LongTermStore = (*RedisLongTermStore)(nil)

func (r *RedisLongTermStore) logKey() string {
	return fmt.Sprintf("%s:%s:log", r.prefix, r.sessionID)
}

func (r *RedisLongTermStore) durableKey() string {
	return fmt.Sprintf("%s:%s:durable", r.prefix, r.sessionID)
}

// Persist appends the memory to the session log, and to the durable list
// when it is flagged for indefinite retention.
func (r *RedisLongTermStore) Persist(ctx context.Context, m companion.Memory) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := r.client.RPush(ctx, r.logKey(), data).Err(); err != nil {
		return err
	}
	if m.Importance >= companion.RetainIndefinitely {
		if err := r.client.RPush(ctx, r.durableKey(), data).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Search scores the session log by keyword overlap with the query and
// returns the top matches, most similar first.
func (r *RedisLongTermStore) Search(ctx context.Context, query string, limit int) ([]companion.MemoryQueryResult, error) {
	raw, err := r.client.LRange(ctx, r.logKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var results []companion.MemoryQueryResult
	for _, item := range raw {
		var m companion.Memory
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		if score := keywordOverlap(query, m.Content); score > 0 {
			results = append(results, companion.MemoryQueryResult{Memory: m, Similarity: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Memory.Timestamp.After(results[j].Memory.Timestamp)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// PurgeOlderThan rewrites the session log, dropping memories older than
// cutoff unless their importance is at least importanceBelow. The durable
// list is never purged.
func (r *RedisLongTermStore) PurgeOlderThan(ctx context.Context, cutoff time.Time, importanceBelow int) error {
	key := r.logKey()
	raw, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return err
	}

	kept := make([]interface{}, 0, len(raw))
	for _, item := range raw {
		var m companion.Memory
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		if m.Timestamp.Before(cutoff) && m.Importance < importanceBelow {
			continue
		}
		kept = append(kept, item)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(kept) > 0 {
		pipe.RPush(ctx, key, kept...)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Len returns the session log length.
func (r *RedisLongTermStore) Len(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, r.logKey()).Result()
	return int(n), err
}

// Durable returns the indefinitely retained memories, oldest first.
func (r *RedisLongTermStore) Durable(ctx context.Context) ([]companion.Memory, error) {
	raw, err := r.client.LRange(ctx, r.durableKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	memories := make([]companion.Memory, 0, len(raw))
	for _, item := range raw {
		var m companion.Memory
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		memories = append(memories, m)
	}
	return memories, nil
}

// keywordOverlap scores content against the query as the fraction of query
// words present in the content.
func keywordOverlap(query, content string) float64 {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	hits := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}
