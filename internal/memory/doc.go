// Package memory is the in-process cache engine.
//
// Entries live in a github.com/patrickmn/go-cache store keyed by the
// serialized key. Every entry carries an absolute deadline and a sliding
// window; the deadline handed to go-cache is always the earlier of the two,
// and a successful read re-arms it. go-cache's janitor removes whatever
// expires without being read.
//
// Usage:
//
//	c := memory.New[*Session](memory.Options{SizeLimit: 10_000})
//	defer c.Close()
//
//	_ = c.Insert(ctx, sessionID, session, time.Now().Add(time.Hour), 10*time.Minute)
//	s, ok, err := c.TryGet(ctx, sessionID)
//
// Universal is the keyless variant: one slot per Go type.
//
//	u := memory.NewUniversal(memory.Options{})
//	_ = memory.InsertOf(ctx, u, settings, time.Time{}, 0)
//	settings, err := memory.GetOf[Settings](ctx, u)
package memory
