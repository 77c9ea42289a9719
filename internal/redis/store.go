package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "globalcache/internal/common/errors"
	"globalcache/internal/common/logging"
	"globalcache/internal/expiration"
)

// Hash fields of a stored entry.
const (
	fieldAbsolute = "absexp"
	fieldSliding  = "sldexp"
	fieldData     = "data"
)

// notPresent marks an absent expiration in the hash and an absent TTL in
// the script arguments.
const notPresent int64 = -1

// setScript writes the entry hash and, when ARGV[3] is not -1, its TTL in
// seconds. ARGV: absolute ticks, sliding ticks, TTL seconds, data.
var setScript = redis.NewScript(`redis.call('HMSET', KEYS[1], 'absexp', ARGV[1], 'sldexp', ARGV[2], 'data', ARGV[4])
if ARGV[3] ~= '-1' then
  redis.call('EXPIRE', KEYS[1], ARGV[3])
end
return 1`)

// EntryOptions carries the expirations of a stored entry. Zero values mean
// absent.
type EntryOptions struct {
	AbsoluteExpiration time.Time
	SlidingExpiration  time.Duration
}

// Set stores data under key with the given expirations, replacing any
// existing entry. An absolute expiration in the past is rejected.
func (s *Store) Set(ctx context.Context, key string, data []byte, opts EntryOptions) error {
	if key == "" {
		return apperrors.ValidationError("key is required")
	}
	if data == nil {
		return apperrors.ValidationError("value is required")
	}
	now := s.now()
	if !opts.AbsoluteExpiration.IsZero() && !opts.AbsoluteExpiration.After(now) {
		return apperrors.ValidationError("absolute expiration must be in the future").
			WithContext("key", key)
	}

	client, err := s.connect(ctx)
	if err != nil {
		return err
	}

	absTicks, sldTicks := notPresent, notPresent
	if !opts.AbsoluteExpiration.IsZero() {
		absTicks = toTicks(opts.AbsoluteExpiration)
	}
	if opts.SlidingExpiration > 0 {
		sldTicks = durationToTicks(opts.SlidingExpiration)
	}
	ttlSeconds := notPresent
	if ttl, ok := expiration.TTL(now, opts.AbsoluteExpiration, opts.SlidingExpiration); ok {
		ttlSeconds = ceilSeconds(ttl)
	}

	err = setScript.Run(ctx, client, []string{s.instance + key},
		absTicks, sldTicks, ttlSeconds, data,
	).Err()
	if err != nil && err != redis.Nil {
		return s.wrap(ctx, "set", err).WithContext("key", key)
	}
	return nil
}

// Get returns the data stored under key. A hit on an entry with a sliding
// expiration restarts its window in the background; failures of that
// restart are logged and otherwise ignored.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, false, err
	}

	vals, err := client.HMGet(ctx, s.instance+key, fieldAbsolute, fieldSliding, fieldData).Result()
	if err != nil {
		return nil, false, s.wrap(ctx, "get", err).WithContext("key", key)
	}
	if len(vals) != 3 || vals[2] == nil {
		return nil, false, nil
	}
	abs, sliding, ok := parseMetadata(vals[0], vals[1])
	if !ok {
		s.logger.Debug("Ignoring entry with malformed metadata", logging.String("key", key))
		return nil, false, nil
	}
	data, ok := vals[2].(string)
	if !ok {
		return nil, false, nil
	}

	s.touchAsync(client, key, abs, sliding)
	return []byte(data), true, nil
}

// Refresh restarts the sliding window of key without reading its data. It
// is a no-op for missing keys and entries with no sliding expiration.
func (s *Store) Refresh(ctx context.Context, key string) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}

	vals, err := client.HMGet(ctx, s.instance+key, fieldAbsolute, fieldSliding).Result()
	if err != nil {
		return s.wrap(ctx, "refresh", err).WithContext("key", key)
	}
	if len(vals) != 2 || vals[1] == nil {
		return nil
	}
	abs, sliding, ok := parseMetadata(vals[0], vals[1])
	if !ok {
		return nil
	}
	ttl, ok := s.slidingTTL(abs, sliding)
	if !ok {
		return nil
	}
	if err := client.PExpire(ctx, s.instance+key, ttl).Err(); err != nil {
		return s.wrap(ctx, "refresh", err).WithContext("key", key)
	}
	return nil
}

// Exists reports whether key is present. It does not restart the sliding
// window.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return false, err
	}
	n, err := client.Exists(ctx, s.instance+key).Result()
	if err != nil {
		return false, s.wrap(ctx, "exists", err).WithContext("key", key)
	}
	return n > 0, nil
}

// Remove deletes key and reports whether it existed.
func (s *Store) Remove(ctx context.Context, key string) (bool, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return false, err
	}
	n, err := client.Del(ctx, s.instance+key).Result()
	if err != nil {
		return false, s.wrap(ctx, "remove", err).WithContext("key", key)
	}
	return n > 0, nil
}

// touchAsync re-arms the TTL of a sliding entry on a detached goroutine so
// the caller does not wait for the round trip.
func (s *Store) touchAsync(client redis.UniversalClient, key string, abs time.Time, sliding time.Duration) {
	ttl, ok := s.slidingTTL(abs, sliding)
	if !ok {
		return
	}

	s.refreshMu.Lock()
	if s.closed.Load() {
		s.refreshMu.Unlock()
		return
	}
	s.refreshes.Add(1)
	s.refreshMu.Unlock()

	go func() {
		defer s.refreshes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.DialTimeout)
		defer cancel()
		if err := client.PExpire(ctx, s.instance+key, ttl).Err(); err != nil {
			s.logger.Debug("Sliding expiration refresh failed",
				logging.String("key", key),
				logging.Err(err),
			)
		}
	}()
}

// slidingTTL is the TTL a hit should re-arm: the sliding window, capped by
// the time left until the absolute deadline.
func (s *Store) slidingTTL(abs time.Time, sliding time.Duration) (time.Duration, bool) {
	if sliding <= 0 {
		return 0, false
	}
	ttl, _ := expiration.TTL(s.now(), abs, sliding)
	if ttl <= 0 {
		return 0, false
	}
	return ttl, true
}

func (s *Store) wrap(ctx context.Context, operation string, err error) *apperrors.AppError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return apperrors.CancelledError(operation, ctxErr)
	}
	return apperrors.InternalError("redis "+operation+" failed", err)
}

// parseMetadata decodes the absexp and sldexp fields. Both must be integers;
// -1 marks an absent expiration.
func parseMetadata(absRaw, sldRaw interface{}) (time.Time, time.Duration, bool) {
	absTicks, ok := parseTicks(absRaw)
	if !ok {
		return time.Time{}, 0, false
	}
	sldTicks, ok := parseTicks(sldRaw)
	if !ok {
		return time.Time{}, 0, false
	}

	var abs time.Time
	if absTicks != notPresent {
		abs = fromTicks(absTicks)
	}
	var sliding time.Duration
	if sldTicks != notPresent {
		sliding = ticksToDuration(sldTicks)
	}
	return abs, sliding, true
}

func parseTicks(raw interface{}) (int64, bool) {
	s, ok := raw.(string)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < notPresent {
		return 0, false
	}
	return n, true
}

func ceilSeconds(d time.Duration) int64 {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
