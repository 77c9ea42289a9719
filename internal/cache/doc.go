// Package cache is the single entry point for callers. A Cache[T] hides
// whether entries live in this process (memory) or in Redis; the backend is
// chosen once, at construction:
//
//	// explicit backend
//	c, err := cache.New[*Order](cache.WithBackend(cache.Remote{
//		Configuration: "cache-1:6379,cache-2:6379",
//		InstanceName:  "orders:",
//	}))
//
//	// settings from the environment, then globalcache.yaml, then local
//	cfg := config.Load()
//	c, err := cache.New[*Order](cache.WithConfig(cfg), cache.WithDiscovery(cfg.ConfigFile))
//
// Every blocking operation has an ...Async twin returning a
// future.Future.
package cache
