package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/maruel/subcommands"

	"globalcache/internal/cache"
)

var cmdGet = &subcommands.Command{
	UsageLine: "get [flags] <key>",
	ShortDesc: "prints the value stored under a key",
	LongDesc:  "Prints the value stored under a key as JSON. Exits with 1 when the key is absent.",
	CommandRun: func() subcommands.CommandRun {
		r := &getRun{}
		r.flags.register(&r.Flags)
		return r
	},
}

type getRun struct {
	subcommands.CommandRunBase
	flags cacheFlags
}

func (r *getRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 1 {
		return usage(a, "get expects exactly one key")
	}
	return r.flags.execute(a, func(ctx context.Context, c *cache.Cache[any], out io.Writer) error {
		v, ok, err := c.TryGet(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("key %q not found", args[0])
		}
		return printValue(out, v)
	})
}

var cmdSet = &subcommands.Command{
	UsageLine: "set [flags] <key> <value>",
	ShortDesc: "stores a value under a key",
	LongDesc: "Stores a value under a key. A value that parses as JSON is stored as that JSON " +
		"document, anything else as a string. Without -minutes the entry lives for 120 minutes; " +
		"without -sliding it expires early when not read for half its lifetime.",
	CommandRun: func() subcommands.CommandRun {
		r := &setRun{}
		r.flags.register(&r.Flags)
		r.Flags.IntVar(&r.minutes, "minutes", 0, "Lifetime in minutes; 0 uses the 120 minute default.")
		r.Flags.DurationVar(&r.sliding, "sliding", 0, "Sliding window; 0 uses half the lifetime.")
		return r
	},
}

type setRun struct {
	subcommands.CommandRunBase
	flags   cacheFlags
	minutes int
	sliding time.Duration
}

func (r *setRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 2 {
		return usage(a, "set expects a key and a value")
	}
	return r.flags.execute(a, func(ctx context.Context, c *cache.Cache[any], _ io.Writer) error {
		return c.InsertMinutes(ctx, args[0], parseValue(args[1]), r.minutes, r.sliding)
	})
}

var cmdDel = &subcommands.Command{
	UsageLine: "del [flags] <key>...",
	ShortDesc: "removes keys",
	LongDesc:  "Removes keys and prints how many were present.",
	CommandRun: func() subcommands.CommandRun {
		r := &delRun{}
		r.flags.register(&r.Flags)
		return r
	},
}

type delRun struct {
	subcommands.CommandRunBase
	flags cacheFlags
}

func (r *delRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) == 0 {
		return usage(a, "del expects at least one key")
	}
	return r.flags.execute(a, func(ctx context.Context, c *cache.Cache[any], out io.Writer) error {
		removed := 0
		for _, key := range args {
			ok, err := c.Remove(ctx, key)
			if err != nil {
				return err
			}
			if ok {
				removed++
			}
		}
		_, err := fmt.Fprintln(out, removed)
		return err
	})
}

var cmdHas = &subcommands.Command{
	UsageLine: "has [flags] <key>",
	ShortDesc: "reports whether a key is present",
	LongDesc:  "Prints true when the key is present and false otherwise.",
	CommandRun: func() subcommands.CommandRun {
		r := &hasRun{}
		r.flags.register(&r.Flags)
		return r
	},
}

type hasRun struct {
	subcommands.CommandRunBase
	flags cacheFlags
}

func (r *hasRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 1 {
		return usage(a, "has expects exactly one key")
	}
	return r.flags.execute(a, func(ctx context.Context, c *cache.Cache[any], out io.Writer) error {
		ok, err := c.HasKey(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, ok)
		return err
	})
}

var cmdPing = &subcommands.Command{
	UsageLine: "ping [flags]",
	ShortDesc: "checks that the backend is reachable",
	LongDesc:  "Pings the Redis backend and prints ok. A local backend is always reachable.",
	CommandRun: func() subcommands.CommandRun {
		r := &pingRun{}
		r.flags.register(&r.Flags)
		return r
	},
}

type pingRun struct {
	subcommands.CommandRunBase
	flags cacheFlags
}

func (r *pingRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 0 {
		return usage(a, "ping takes no arguments")
	}
	return r.flags.execute(a, func(ctx context.Context, c *cache.Cache[any], out io.Writer) error {
		if err := c.Health(ctx); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out, "ok")
		return err
	})
}

var cmdKeys = &subcommands.Command{
	UsageLine: "keys [flags]",
	ShortDesc: "lists every key",
	LongDesc:  "Lists every key of the type key namespace, one per line. This scans the whole instance.",
	CommandRun: func() subcommands.CommandRun {
		r := &keysRun{}
		r.flags.register(&r.Flags)
		return r
	},
}

type keysRun struct {
	subcommands.CommandRunBase
	flags cacheFlags
}

func (r *keysRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 0 {
		return usage(a, "keys takes no arguments")
	}
	return r.flags.execute(a, func(ctx context.Context, c *cache.Cache[any], out io.Writer) error {
		keys, err := c.ListKeys(ctx)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if _, err := fmt.Fprintln(out, k); err != nil {
				return err
			}
		}
		return nil
	})
}

var cmdValues = &subcommands.Command{
	UsageLine: "values [flags]",
	ShortDesc: "prints every value",
	LongDesc:  "Prints every value of the type key namespace as JSON, one per line, ordered by key.",
	CommandRun: func() subcommands.CommandRun {
		r := &valuesRun{}
		r.flags.register(&r.Flags)
		return r
	},
}

type valuesRun struct {
	subcommands.CommandRunBase
	flags cacheFlags
}

func (r *valuesRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 0 {
		return usage(a, "values takes no arguments")
	}
	return r.flags.execute(a, func(ctx context.Context, c *cache.Cache[any], out io.Writer) error {
		values, err := c.ListValues(ctx)
		if err != nil {
			return err
		}
		for _, v := range values {
			if err := printValue(out, v); err != nil {
				return err
			}
		}
		return nil
	})
}

var cmdLock = &subcommands.Command{
	UsageLine: "lock [flags] <name>",
	ShortDesc: "takes a named lock",
	LongDesc:  "Takes a named lock and prints whether it was acquired. The lock expires after -ttl.",
	CommandRun: func() subcommands.CommandRun {
		r := &lockRun{}
		r.flags.register(&r.Flags)
		r.Flags.DurationVar(&r.ttl, "ttl", 2*time.Minute, "Lock lifetime.")
		return r
	},
}

type lockRun struct {
	subcommands.CommandRunBase
	flags cacheFlags
	ttl   time.Duration
}

func (r *lockRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 1 {
		return usage(a, "lock expects exactly one name")
	}
	return r.flags.execute(a, func(ctx context.Context, c *cache.Cache[any], out io.Writer) error {
		ok, err := c.AcquireLock(ctx, args[0], r.ttl)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, ok)
		return err
	})
}

var cmdUnlock = &subcommands.Command{
	UsageLine: "unlock [flags] <name>",
	ShortDesc: "releases a named lock",
	LongDesc:  "Releases a named lock and prints whether it was held.",
	CommandRun: func() subcommands.CommandRun {
		r := &unlockRun{}
		r.flags.register(&r.Flags)
		return r
	},
}

type unlockRun struct {
	subcommands.CommandRunBase
	flags cacheFlags
}

func (r *unlockRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 1 {
		return usage(a, "unlock expects exactly one name")
	}
	return r.flags.execute(a, func(ctx context.Context, c *cache.Cache[any], out io.Writer) error {
		ok, err := c.ReleaseLock(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, ok)
		return err
	})
}
