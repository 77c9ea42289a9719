package cache

import (
	"globalcache/internal/common/logging"
	"globalcache/internal/config"
	"globalcache/internal/serializer"
)

// Kind names the backend behind a Cache.
type Kind string

const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// Backend is Local or Remote.
type Backend interface {
	Kind() Kind
}

// Local keeps entries in this process.
type Local struct {
	// SizeLimit caps the number of entries; zero is unbounded.
	SizeLimit int
}

// Kind implements Backend.
func (Local) Kind() Kind { return KindLocal }

// Remote keeps entries in Redis.
type Remote struct {
	// Configuration is a redis:// URL or a comma-separated endpoint list.
	Configuration string
	Endpoints     []string
	InstanceName  string
	Password      string
	DB            int
	PoolSize      int
	// Workers bounds the concurrent reads of ListValues; zero picks a
	// default from the CPU count.
	Workers int
}

// Kind implements Backend.
func (Remote) Kind() Kind { return KindRemote }

type options struct {
	backend    Backend
	config     *config.Config
	discover   bool
	configFile string
	serializer serializer.Serializer
	typeKey    string
	logger     logging.Logger
}

// Option configures New.
type Option func(*options)

// WithBackend selects the backend directly. It takes precedence over every
// other source.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithConfig selects the backend from loaded settings, unless WithBackend
// is also given. Settings that leave the backend undecided fall through to
// discovery.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithDiscovery consults the YAML file at path (config.DefaultConfigFile
// when empty) if neither WithBackend nor WithConfig decided the backend.
func WithDiscovery(path string) Option {
	return func(o *options) {
		o.discover = true
		o.configFile = path
	}
}

// WithSerializer sets the codec for keys and values. JSON by default.
func WithSerializer(s serializer.Serializer) Option {
	return func(o *options) { o.serializer = s }
}

// WithTypeKey sets the key namespace used by the Remote backend.
func WithTypeKey(typeKey string) Option {
	return func(o *options) { o.typeKey = typeKey }
}

// WithLogger sets the logger; the global logger is used otherwise.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// resolveBackend applies the precedence: explicit backend, then explicit
// settings, then a discovered file, then Local.
func (o *options) resolveBackend() (Backend, string, error) {
	if o.backend != nil {
		return o.backend, "option", nil
	}

	if o.config != nil && o.config.Decided() {
		if err := o.config.Validate(); err != nil {
			return nil, "", err
		}
		return fromConfig(o.config), "config", nil
	}

	if o.discover {
		cfg, found, err := config.Discover(o.configFile)
		if err != nil {
			return nil, "", err
		}
		if found {
			if err := cfg.Validate(); err != nil {
				return nil, "", err
			}
			return fromConfig(cfg), cfg.ConfigFile, nil
		}
	}

	if o.config != nil {
		return Local{SizeLimit: o.config.Local.SizeLimit}, "config", nil
	}
	return Local{}, "default", nil
}

func fromConfig(cfg *config.Config) Backend {
	if !cfg.UsesRedis() {
		return Local{SizeLimit: cfg.Local.SizeLimit}
	}
	return Remote{
		Configuration: cfg.Redis.Configuration,
		InstanceName:  cfg.Redis.InstanceName,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		Workers:       cfg.Redis.Workers,
	}
}
