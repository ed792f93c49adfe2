package scheduler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/netreconf/bgpplan/pkg/depanalysis"
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/util"
)

// keyPrefix namespaces cached schedules from any other key this Redis
// instance might hold.
const keyPrefix = "bgpplan:schedule:"

// Cache memoizes solved schedules, keyed by a hash of the dependency
// sets, the before/after next-hop maps, and the horizon-search options
// they were solved with, so repeated planning runs over an unchanged
// migration don't re-run the branch-and-bound search. A nil *Cache
// disables caching entirely: SolveCached then calls Solve directly.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	ctx    context.Context
}

// NewCache builds a cache backed by the Redis instance at addr. addr
// empty disables caching: NewCache("") is safe to use anywhere a
// *Cache is expected.
func NewCache(addr string, ttl time.Duration) *Cache {
	if addr == "" {
		return nil
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		ctx:    context.Background(),
	}
}

// Close releases the underlying Redis connection. Safe to call on a
// nil *Cache.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// SolveCached wraps Solve with a cache lookup keyed by the migration's
// content hash at the given horizon options. A nil Cache, or a cache
// miss followed by a Redis error on the write-back, never prevents a
// schedule from being returned — caching is a pure performance layer.
func (c *Cache) SolveCached(deps depanalysis.Deps, oldNextHop, newNextHop map[model.RouterId]model.RouterId, opts Options) (*Schedule, error) {
	if c == nil {
		return Solve(deps, nil, oldNextHop, newNextHop, opts)
	}

	key := keyPrefix + hashInputs(deps, oldNextHop, newNextHop, opts)
	if cached, ok := c.get(key); ok {
		util.WithField("key", key).Debug("scheduler: cache hit")
		return cached, nil
	}

	sched, err := Solve(deps, nil, oldNextHop, newNextHop, opts)
	if err != nil {
		return nil, err
	}
	c.put(key, sched)
	return sched, nil
}

func (c *Cache) get(key string) (*Schedule, bool) {
	raw, err := c.client.Get(c.ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			util.WithField("key", key).WithField("error", err.Error()).Warn("scheduler: cache read failed")
		}
		return nil, false
	}
	var sched Schedule
	if err := json.Unmarshal(raw, &sched); err != nil {
		util.WithField("key", key).WithField("error", err.Error()).Warn("scheduler: cache entry unreadable")
		return nil, false
	}
	return &sched, true
}

func (c *Cache) put(key string, sched *Schedule) {
	raw, err := json.Marshal(sched)
	if err != nil {
		return
	}
	if err := c.client.Set(c.ctx, key, raw, c.ttl).Err(); err != nil {
		util.WithField("key", key).WithField("error", err.Error()).Warn("scheduler: cache write failed")
	}
}

// hashInputs computes a stable digest of everything that determines a
// schedule's solution, so two equal migrations hash identically
// regardless of Go map iteration order.
func hashInputs(deps depanalysis.Deps, oldNextHop, newNextHop map[model.RouterId]model.RouterId, opts Options) string {
	h := sha256.New()
	fmt.Fprintf(h, "prefix=%s\n", deps.Prefix.String())
	fmt.Fprintf(h, "changed=%v\n", sortedIds(deps.Changed))
	writePeerSets(h, deps.OldFrom)
	writePeerSets(h, deps.NewFrom)
	writeHopMap(h, "old", oldNextHop)
	writeHopMap(h, "new", newNextHop)
	fmt.Fprintf(h, "opts=%d,%d\n", opts.MaxHorizon, opts.TempSessionBudget)
	return hex.EncodeToString(h.Sum(nil))
}

func sortedIds(ids []model.RouterId) []model.RouterId {
	out := append([]model.RouterId(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func writePeerSets(h interface{ Write([]byte) (int, error) }, sets map[model.RouterId]depanalysis.PeerSet) {
	var routers []model.RouterId
	for r := range sets {
		routers = append(routers, r)
	}
	sort.Slice(routers, func(i, j int) bool { return routers[i] < routers[j] })
	for _, r := range routers {
		var peers []model.RouterId
		for p := range sets[r] {
			peers = append(peers, p)
		}
		sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
		fmt.Fprintf(h, "%v<-%v\n", r, peers)
	}
}

func writeHopMap(h interface{ Write([]byte) (int, error) }, label string, hops map[model.RouterId]model.RouterId) {
	var routers []model.RouterId
	for r := range hops {
		routers = append(routers, r)
	}
	sort.Slice(routers, func(i, j int) bool { return routers[i] < routers[j] })
	for _, r := range routers {
		fmt.Fprintf(h, "%s:%v->%v\n", label, r, hops[r])
	}
}
