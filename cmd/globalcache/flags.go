package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/maruel/subcommands"

	"globalcache/internal/cache"
	apperrors "globalcache/internal/common/errors"
	"globalcache/internal/config"
	"globalcache/internal/serializer"
)

// cacheFlags are the flags every command shares. Flags left empty fall back
// to the environment and then to the settings file.
type cacheFlags struct {
	backend    string
	configFile string
	redis      string
	instance   string
	typeKey    string
	codec      string
	timeout    time.Duration
}

func (f *cacheFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.backend, "backend", "", "Backend to use: local or redis.")
	fs.StringVar(&f.configFile, "config", "", "YAML settings file to consult when no backend is selected.")
	fs.StringVar(&f.redis, "redis", "", "Redis URL or comma-separated host:port list.")
	fs.StringVar(&f.instance, "instance", "", "Instance name prefixed to every Redis key.")
	fs.StringVar(&f.typeKey, "type-key", "cli", "Namespace of the keys inside the instance.")
	fs.StringVar(&f.codec, "codec", "json", "Value encoding: json or msgpack.")
	fs.DurationVar(&f.timeout, "timeout", 10*time.Second, "Time limit for the whole command.")
}

func (f *cacheFlags) settings() *config.Config {
	cfg := config.Load()
	if f.backend != "" {
		cfg.Backend = strings.ToLower(f.backend)
	}
	if f.redis != "" {
		cfg.Redis.Configuration = f.redis
	}
	if f.instance != "" {
		cfg.Redis.InstanceName = f.instance
	}
	if f.configFile != "" {
		cfg.ConfigFile = f.configFile
	}
	return cfg
}

func (f *cacheFlags) serializer() (serializer.Serializer, error) {
	switch strings.ToLower(f.codec) {
	case "", "json":
		return serializer.JSON{}, nil
	case "msgpack":
		return serializer.Msgpack{}, nil
	default:
		return nil, apperrors.ValidationError(fmt.Sprintf("unknown codec %q", f.codec))
	}
}

// execute opens the cache, runs fn and reports its error on the
// application's error stream.
func (f *cacheFlags) execute(a subcommands.Application, fn func(ctx context.Context, c *cache.Cache[any], out io.Writer) error) int {
	s, err := f.serializer()
	if err != nil {
		return fail(a, err)
	}
	cfg := f.settings()

	c, err := cache.New[any](
		cache.WithConfig(cfg),
		cache.WithDiscovery(cfg.ConfigFile),
		cache.WithTypeKey(f.typeKey),
		cache.WithSerializer(s),
	)
	if err != nil {
		return fail(a, err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	if err := fn(ctx, c, a.GetOut()); err != nil {
		return fail(a, err)
	}
	return 0
}

func fail(a subcommands.Application, err error) int {
	fmt.Fprintf(a.GetErr(), "%s: %v\n", a.GetName(), err)
	return 1
}

func usage(a subcommands.Application, msg string) int {
	fmt.Fprintf(a.GetErr(), "%s: %s\n", a.GetName(), msg)
	return 1
}

// parseValue decodes arg as JSON when it is valid JSON and keeps it as a
// string otherwise.
func parseValue(arg string) any {
	var v any
	if gojson.Valid([]byte(arg)) {
		if err := gojson.Unmarshal([]byte(arg), &v); err == nil && v != nil {
			return v
		}
	}
	return arg
}

func printValue(out io.Writer, v any) error {
	data, err := gojson.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
