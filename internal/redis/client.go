package redis

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/semaphore"

	apperrors "globalcache/internal/common/errors"
	"globalcache/internal/common/logging"
)

const (
	// DefaultEndpoint is used when neither Configuration nor Endpoints is set.
	DefaultEndpoint = "localhost:6379"
	// DefaultPoolSize is the connection pool size per node.
	DefaultPoolSize = 10
	// DefaultDialTimeout bounds dialing and the initial ping.
	DefaultDialTimeout = 5 * time.Second
)

// Options configures a Store.
type Options struct {
	// Configuration is a redis:// URL or a comma-separated list of
	// host:port endpoints. More than one endpoint selects cluster mode.
	Configuration string `json:"configuration" yaml:"configuration"`
	// Endpoints overrides the endpoints parsed from Configuration.
	Endpoints []string `json:"endpoints" yaml:"endpoints"`
	// InstanceName prefixes every key the store touches.
	InstanceName string `json:"instance_name" yaml:"instance_name"`
	Password     string `json:"password" yaml:"password"`
	DB           int    `json:"db" yaml:"db"`
	PoolSize     int    `json:"pool_size" yaml:"pool_size"`

	DialTimeout time.Duration `json:"-" yaml:"-"`
	// Workers bounds the concurrent reads of ListValues.
	Workers int            `json:"-" yaml:"-"`
	Logger  logging.Logger `json:"-" yaml:"-"`
}

type connection struct {
	client redis.UniversalClient
}

// Store is a byte-level expiring store backed by Redis. The connection is
// opened on first use and shared by all callers.
type Store struct {
	opts     Options
	instance string
	workers  int
	logger   logging.Logger
	now      func() time.Time

	conn   atomic.Pointer[connection]
	guard  *semaphore.Weighted
	closed atomic.Bool

	// refreshes tracks detached sliding-window touches so Close can wait
	// for them. refreshMu orders every Add against the closed flag, so no
	// Add can start once Close is waiting.
	refreshMu sync.Mutex
	refreshes sync.WaitGroup
}

// NewStore creates a store. No connection is made until the first operation.
func NewStore(opts Options) *Store {
	if opts.PoolSize <= 0 {
		opts.PoolSize = DefaultPoolSize
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers()
	}

	return &Store{
		opts:     opts,
		instance: opts.InstanceName,
		workers:  workers,
		logger:   logging.ForComponent(opts.Logger, "redis"),
		now:      time.Now,
		guard:    semaphore.NewWeighted(1),
	}
}

func defaultWorkers() int {
	if n := runtime.NumCPU() - 1; n > 2 {
		return n
	}
	return 1
}

// InstanceName returns the key prefix of the store.
func (s *Store) InstanceName() string {
	return s.instance
}

// Workers returns the number of concurrent reads ListValues may run.
func (s *Store) Workers() int {
	return s.workers
}

// Health pings the server.
func (s *Store) Health(ctx context.Context) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return apperrors.ConnectionError("redis ping failed", err)
	}
	return nil
}

// Close waits for pending refreshes and closes the connection. The store
// cannot be reused afterwards.
func (s *Store) Close() error {
	s.refreshMu.Lock()
	alreadyClosed := s.closed.Swap(true)
	s.refreshMu.Unlock()
	if alreadyClosed {
		return nil
	}
	s.refreshes.Wait()

	if err := s.guard.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer s.guard.Release(1)

	c := s.conn.Swap(nil)
	if c == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return apperrors.InternalError("failed to close redis connection", err)
	}
	return nil
}

func (s *Store) connect(ctx context.Context) (redis.UniversalClient, error) {
	if c := s.conn.Load(); c != nil {
		return c.client, nil
	}
	if s.closed.Load() {
		return nil, apperrors.ConnectionError("redis store is closed", nil)
	}

	if err := s.guard.Acquire(ctx, 1); err != nil {
		return nil, apperrors.CancelledError("connect", err)
	}
	defer s.guard.Release(1)

	// Another caller may have connected while we waited.
	if c := s.conn.Load(); c != nil {
		return c.client, nil
	}
	if s.closed.Load() {
		return nil, apperrors.ConnectionError("redis store is closed", nil)
	}

	client, endpoints, err := newClient(s.opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		s.logger.Error("Failed to connect to Redis", err, logging.Strings("endpoints", endpoints))
		return nil, apperrors.ConnectionError("failed to connect to Redis", err).
			WithContext("endpoints", strings.Join(endpoints, ","))
	}

	s.conn.Store(&connection{client: client})
	s.logger.Info("Connected to Redis",
		logging.Strings("endpoints", endpoints),
		logging.String("instance", s.instance),
	)
	return client, nil
}

// newClient builds a single-node or cluster client from opts. It returns the
// endpoints it resolved for logging.
func newClient(opts Options) (redis.UniversalClient, []string, error) {
	endpoints := opts.Endpoints
	var fromURL *redis.Options

	if len(endpoints) == 0 {
		var err error
		fromURL, endpoints, err = parseConfiguration(opts.Configuration)
		if err != nil {
			return nil, nil, err
		}
	}
	if len(endpoints) == 0 {
		endpoints = []string{DefaultEndpoint}
	}

	if len(endpoints) > 1 {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:       endpoints,
			Password:    opts.Password,
			PoolSize:    opts.PoolSize,
			DialTimeout: opts.DialTimeout,
		}), endpoints, nil
	}

	o := fromURL
	if o == nil {
		o = &redis.Options{Addr: endpoints[0]}
	}
	if opts.Password != "" {
		o.Password = opts.Password
	}
	if opts.DB != 0 {
		o.DB = opts.DB
	}
	o.PoolSize = opts.PoolSize
	o.DialTimeout = opts.DialTimeout
	return redis.NewClient(o), endpoints, nil
}

// parseConfiguration accepts "redis://..." / "rediss://..." URLs and
// comma-separated endpoint lists.
func parseConfiguration(configuration string) (*redis.Options, []string, error) {
	configuration = strings.TrimSpace(configuration)
	if configuration == "" {
		return nil, nil, nil
	}

	if strings.HasPrefix(configuration, "redis://") || strings.HasPrefix(configuration, "rediss://") {
		o, err := redis.ParseURL(configuration)
		if err != nil {
			return nil, nil, apperrors.ConfigError("invalid redis configuration URL").
				WithContext("error", err.Error())
		}
		return o, []string{o.Addr}, nil
	}

	var endpoints []string
	for _, part := range strings.Split(configuration, ",") {
		if part = strings.TrimSpace(part); part != "" {
			endpoints = append(endpoints, part)
		}
	}
	return nil, endpoints, nil
}
