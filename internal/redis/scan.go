package redis

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	apperrors "globalcache/internal/common/errors"
)

// scanPageSize is the COUNT hint of each SCAN call.
const scanPageSize = 1000

type scanner interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// Keys lists the keys stored under prefix with the instance name and
// "prefix:" removed. An empty prefix lists every data key of the instance.
// Keys are sorted.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		mu   sync.Mutex
		keys []string
	)
	err := s.scan(ctx, prefix, func(full string) error {
		if key, ok := s.stripKey(full, prefix); ok {
			mu.Lock()
			keys = append(keys, key)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// ListValues reads every entry stored under prefix and decodes it with
// convert. Reads run on at most Options.Workers goroutines while the scan
// is still producing keys. The first read or convert error cancels the
// rest and is returned once in-flight reads have finished; no partial
// result is returned. Entries that disappear between scan and read are
// skipped. Values are ordered by key.
func ListValues[T any](ctx context.Context, s *Store, prefix string, convert func(context.Context, []byte) (T, error)) ([]T, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var (
		mu    sync.Mutex
		found = make(map[string]T)
	)
	scanErr := s.scan(gctx, prefix, func(full string) error {
		key, ok := s.stripKey(full, prefix)
		if !ok {
			return nil
		}
		g.Go(func() error {
			data, hit, err := s.Get(gctx, strings.TrimPrefix(full, s.instance))
			if err != nil || !hit {
				return err
			}
			v, err := convert(gctx, data)
			if err != nil {
				return apperrors.InternalError("failed to decode value", err).WithContext("key", key)
			}
			mu.Lock()
			found[key] = v
			mu.Unlock()
			return nil
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}

	keys := make([]string, 0, len(found))
	for k := range found {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]T, 0, len(keys))
	for _, k := range keys {
		values = append(values, found[k])
	}
	return values, nil
}

// scan calls emit with every full key matching prefix. On a cluster every
// master is scanned concurrently, so emit must be safe for concurrent use.
func (s *Store) scan(ctx context.Context, prefix string, emit func(string) error) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	pattern := s.matchPattern(prefix)

	if cluster, ok := client.(*redis.ClusterClient); ok {
		return cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return s.scanNode(ctx, node, pattern, emit)
		})
	}
	return s.scanNode(ctx, client, pattern, emit)
}

func (s *Store) scanNode(ctx context.Context, node scanner, pattern string, emit func(string) error) error {
	var cursor uint64
	for {
		if err := ctx.Err(); err != nil {
			return apperrors.CancelledError("scan", err)
		}
		page, next, err := node.Scan(ctx, cursor, pattern, scanPageSize).Result()
		if err != nil {
			return s.wrap(ctx, "scan", err)
		}
		for _, key := range page {
			if err := emit(key); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *Store) matchPattern(prefix string) string {
	if prefix == "" {
		return escapeGlob(s.instance) + "*"
	}
	return escapeGlob(s.instance+prefix+":") + "*"
}

// stripKey removes the instance name and "prefix:" from a scanned key. With
// an empty prefix only the instance name is removed and lock keys are
// skipped.
func (s *Store) stripKey(full, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(full, s.instance)
	if !ok {
		return "", false
	}
	if prefix == "" {
		if strings.HasPrefix(rest, lockPrefix) {
			return "", false
		}
		return rest, true
	}
	return strings.CutPrefix(rest, prefix+":")
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
