package verification

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "verify_code:"

// RedisStore shares pending codes between API instances. Each phone maps to
// a hash with the bcrypt digest, the attempt counter and the creation time;
// the key TTL is the code lifetime.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *RedisStore) Save(ctx context.Context, phone string, entry Entry, ttl time.Duration) error {
	key := keyPrefix + phone
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"hash", string(entry.Hash),
			"attempts", entry.Attempts,
			"created", entry.CreatedAt.UnixMilli(),
		)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Load(ctx context.Context, phone string) (*Entry, error) {
	fields, err := s.client.HGetAll(ctx, keyPrefix+phone).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	hash, ok := fields["hash"]
	if !ok {
		return nil, nil
	}
	entry := &Entry{Hash: []byte(hash)}
	if attempts, err := strconv.Atoi(fields["attempts"]); err == nil {
		entry.Attempts = attempts
	}
	if created, err := strconv.ParseInt(fields["created"], 10, 64); err == nil {
		entry.CreatedAt = time.UnixMilli(created)
	}
	return entry, nil
}

// incrementAttempts bumps the counter only while the code is still pending,
// so an expired key is never recreated without its hash and TTL.
var incrementAttempts = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`)

func (s *RedisStore) IncrementAttempts(ctx context.Context, phone string) (int, error) {
	n, err := incrementAttempts.Run(ctx, s.client, []string{keyPrefix + phone}).Int()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *RedisStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, keyPrefix+phone).Err()
}
