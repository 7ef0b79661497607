package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jobbyai/planguard/pkg/plans"
)

const (
	defaultRedisPrefix = "planguard:usage"

	fieldCount     = "count"
	fieldID        = "id"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// incrementScript increments the record hash, optionally only while below a limit.
// KEYS[1] = record hash, KEYS[2] = period index zset
// ARGV[1] = limit (-1 increments unconditionally), ARGV[2] = new record id,
// ARGV[3] = now (unix micro), ARGV[4] = index member, ARGV[5] = index score,
// ARGV[6] = ttl in seconds (0 keeps the keys forever)
// Returns {count, applied}
var incrementScript = redis.NewScript(`
local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
local limit = tonumber(ARGV[1])
if limit >= 0 and count >= limit then
    return {count, 0}
end

count = redis.call('HINCRBY', KEYS[1], 'count', 1)
if count == 1 then
    redis.call('HSET', KEYS[1], 'id', ARGV[2], 'created_at', ARGV[3])
end
redis.call('HSET', KEYS[1], 'updated_at', ARGV[3])
redis.call('ZADD', KEYS[2], ARGV[5], ARGV[4])

local ttl = tonumber(ARGV[6])
if ttl > 0 then
    redis.call('EXPIRE', KEYS[1], ttl)
    redis.call('EXPIRE', KEYS[2], ttl)
end
return {count, 1}
`)

// RedisStore keeps usage counters in Redis hashes. Conditional increments run
// as a single Lua script, so they are atomic across every service instance.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix sets the namespace of every key written by the store.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRetention expires period records this long after the period ends.
// Zero keeps records forever, which is the default.
func WithRetention(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithRedisClock sets the clock used for record stamps and key expiry.
func WithRedisClock(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRedisStore creates a store on top of a go-redis client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: defaultRedisPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Get(ctx context.Context, key Key) (int64, error) {
	count, err := s.client.HGet(ctx, s.recordKey(key), fieldCount).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return count, nil
}

func (s *RedisStore) Increment(ctx context.Context, key Key) (int64, error) {
	count, _, err := s.run(ctx, key, -1)
	return count, err
}

func (s *RedisStore) IncrementIfBelow(ctx context.Context, key Key, limit int64) (int64, bool, error) {
	if limit < 0 {
		limit = 0
	}
	return s.run(ctx, key, limit)
}

func (s *RedisStore) Credits(ctx context.Context, key Key) (int64, error) {
	total, err := s.client.Get(ctx, s.creditsKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return total, nil
}

// creditEntry is the audit form of a credit kept next to the running total.
type creditEntry struct {
	ID        uuid.UUID `json:"id"`
	Units     int64     `json:"units"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *RedisStore) AddCredit(ctx context.Context, credit Credit) error {
	entry, err := json.Marshal(creditEntry{
		ID:        credit.ID,
		Units:     credit.Units,
		Reason:    credit.Reason,
		CreatedAt: credit.CreatedAt,
	})
	if err != nil {
		return errors.Join(ErrStorage, err)
	}

	ttl := s.ttl(credit.Key.Period)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.IncrBy(ctx, s.creditsKey(credit.Key), credit.Units)
		pipe.RPush(ctx, s.creditLogKey(credit.Key), entry)
		if ttl > 0 {
			pipe.Expire(ctx, s.creditsKey(credit.Key), ttl)
			pipe.Expire(ctx, s.creditLogKey(credit.Key), ttl)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, userID string, feature plans.Feature) ([]Record, error) {
	members, err := s.client.ZRevRange(ctx, s.indexKey(userID, feature), 0, -1).Result()
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	if len(members) == 0 {
		return []Record{}, nil
	}

	periods := make([]Period, 0, len(members))
	cmds := make([]*redis.MapStringStringCmd, 0, len(members))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, m := range members {
			p, err := parseIndexMember(m)
			if err != nil {
				continue
			}
			periods = append(periods, p)
			cmds = append(cmds, pipe.HGetAll(ctx, s.recordKey(Key{UserID: userID, Feature: feature, Period: p})))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, errors.Join(ErrStorage, err)
	}

	out := make([]Record, 0, len(cmds))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			// Expired by retention while the index entry survived.
			continue
		}
		r := Record{
			UserID:      userID,
			Feature:     feature,
			PeriodStart: periods[i].Start,
			PeriodEnd:   periods[i].End,
		}
		r.Count, _ = strconv.ParseInt(fields[fieldCount], 10, 64)
		r.ID, _ = uuid.Parse(fields[fieldID])
		r.CreatedAt = parseMicros(fields[fieldCreatedAt])
		r.UpdatedAt = parseMicros(fields[fieldUpdatedAt])
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisStore) run(ctx context.Context, key Key, limit int64) (int64, bool, error) {
	res, err := incrementScript.Run(ctx, s.client,
		[]string{s.recordKey(key), s.indexKey(key.UserID, key.Feature)},
		limit,
		uuid.NewString(),
		s.now().UTC().UnixMicro(),
		indexMember(key.Period),
		key.Period.Start.UnixMicro(),
		int64(s.ttl(key.Period)/time.Second),
	).Int64Slice()
	if err != nil {
		return 0, false, errors.Join(ErrStorage, err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("%w: unexpected script reply %v", ErrStorage, res)
	}
	return res[0], res[1] == 1, nil
}

// ttl is zero without retention, otherwise the time left until End+retention (at least one second).
func (s *RedisStore) ttl(p Period) time.Duration {
	if s.retention <= 0 {
		return 0
	}
	d := p.End.Add(s.retention).Sub(s.now())
	if d < time.Second {
		d = time.Second
	}
	return d
}

// Keys of one user and feature share a hash tag so the script stays in one cluster slot.
func (s *RedisStore) slot(userID string, feature plans.Feature) string {
	return "{" + userID + "|" + string(feature) + "}"
}

func (s *RedisStore) recordKey(key Key) string {
	return s.prefix + ":" + s.slot(key.UserID, key.Feature) + ":" + indexMember(key.Period)
}

func (s *RedisStore) creditsKey(key Key) string {
	return s.recordKey(key) + ":credits"
}

func (s *RedisStore) creditLogKey(key Key) string {
	return s.recordKey(key) + ":credits:log"
}

func (s *RedisStore) indexKey(userID string, feature plans.Feature) string {
	return s.prefix + ":" + s.slot(userID, feature) + ":periods"
}

func indexMember(p Period) string {
	return strconv.FormatInt(p.Start.UnixMicro(), 10) + ":" + strconv.FormatInt(p.End.UnixMicro(), 10)
}

func parseIndexMember(m string) (Period, error) {
	start, end, ok := strings.Cut(m, ":")
	if !ok {
		return Period{}, fmt.Errorf("%w: index member %q", ErrInvalidPeriod, m)
	}
	s, err := strconv.ParseInt(start, 10, 64)
	if err != nil {
		return Period{}, fmt.Errorf("%w: index member %q", ErrInvalidPeriod, m)
	}
	e, err := strconv.ParseInt(end, 10, 64)
	if err != nil {
		return Period{}, fmt.Errorf("%w: index member %q", ErrInvalidPeriod, m)
	}
	return NewPeriod(time.UnixMicro(s), time.UnixMicro(e))
}

func parseMicros(v string) time.Time {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMicro(n).UTC()
}
