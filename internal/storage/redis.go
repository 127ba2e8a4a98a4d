package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps users in one hash (<prefix>:users, field = user id) and
// posts in one hash per user (<prefix>:posts:<id>, field = unix nanos), with
// <prefix>:posts:index tracking which users have posts.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStoreWithClient(client, prefix), nil
}

func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) Users() UserStore { return redisUsers{s} }

func (s *RedisStore) Posts() PostLog { return redisPosts{s} }

func (s *RedisStore) usersKey() string      { return s.prefix + ":users" }
func (s *RedisStore) postsIndexKey() string { return s.prefix + ":posts:index" }
func (s *RedisStore) postsKey(id string) string {
	return s.prefix + ":posts:" + id
}

type redisUsers struct{ s *RedisStore }

func (u redisUsers) Get(ctx context.Context, userID int64) (UserRecord, error) {
	rec := UserRecord{UserID: userID}
	data, err := u.s.client.HGet(ctx, u.s.usersKey(), strconv.FormatInt(userID, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return rec, nil
	}
	if err != nil {
		return UserRecord{}, wrap("redis get user", err)
	}
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return UserRecord{}, wrap("redis decode user", err)
	}
	return rec, nil
}

func (u redisUsers) Put(ctx context.Context, rec UserRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return wrap("redis encode user", err)
	}
	if err := u.s.client.HSet(ctx, u.s.usersKey(), strconv.FormatInt(rec.UserID, 10), data).Err(); err != nil {
		return wrap("redis put user", err)
	}
	return nil
}

func (u redisUsers) All(ctx context.Context) ([]UserRecord, error) {
	all, err := u.s.client.HGetAll(ctx, u.s.usersKey()).Result()
	if err != nil {
		return nil, wrap("redis list users", err)
	}
	out := make([]UserRecord, 0, len(all))
	for _, data := range all {
		var rec UserRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	sortRecords(out)
	return out, nil
}

type redisPosts struct{ s *RedisStore }

func (p redisPosts) Append(ctx context.Context, entry PostLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return wrap("redis encode post", err)
	}
	id := strconv.FormatInt(entry.UserID, 10)
	field := strconv.FormatInt(entry.Timestamp.UnixNano(), 10)
	_, err = p.s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, p.s.postsKey(id), field, data)
		pipe.SAdd(ctx, p.s.postsIndexKey(), id)
		return nil
	})
	if err != nil {
		return wrap("redis append post", err)
	}
	return nil
}

func (p redisPosts) All(ctx context.Context) ([]PostLogEntry, error) {
	ids, err := p.s.client.SMembers(ctx, p.s.postsIndexKey()).Result()
	if err != nil {
		return nil, wrap("redis list post index", err)
	}
	var out []PostLogEntry
	for _, id := range ids {
		all, err := p.s.client.HGetAll(ctx, p.s.postsKey(id)).Result()
		if err != nil {
			return nil, wrap("redis list posts", err)
		}
		for _, data := range all {
			var e PostLogEntry
			if err := json.Unmarshal([]byte(data), &e); err != nil {
				continue
			}
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (p redisPosts) Clear(ctx context.Context) error {
	ids, err := p.s.client.SMembers(ctx, p.s.postsIndexKey()).Result()
	if err != nil {
		return wrap("redis list post index", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, p.s.postsKey(id))
	}
	keys = append(keys, p.s.postsIndexKey())
	if err := p.s.client.Del(ctx, keys...).Err(); err != nil {
		return wrap("redis clear posts", err)
	}
	return nil
}
