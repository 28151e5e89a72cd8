// Package ratelimit admits or rejects messages per sender using fixed windows.
package ratelimit

import (
	"container/list"
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

const (
	// DefaultMaxSenders upper bound of tracked sender windows
	DefaultMaxSenders = 100_000
	defaultShards     = 32
)

// Stats limiter counters snapshot
type Stats = entity.RateLimitStats

// FixedWindow per-sender fixed window counter.
//
// Sender windows live in sharded LRU lists ordered by last request, so both
// the idle sweep and the hard sender cap drop the stalest windows first. The
// cap is global: a new sender evicts only when the whole table is full, and
// then evicts the window seen least recently in any shard.
type FixedWindow struct {
	limit      int
	window     time.Duration
	maxSenders int
	now        func() time.Time
	shards     []*shard

	clock   atomic.Uint64 // recency stamps
	tracked atomic.Int64  // stored windows plus inserts in flight
	evictMu sync.Mutex

	admitted  atomic.Uint64
	rejected  atomic.Uint64
	evictions atomic.Uint64
	swept     atomic.Uint64
}

type shard struct {
	mu      sync.Mutex
	ll      *list.List // front = most recently seen
	windows map[int64]*list.Element
}

type rateWindow struct {
	senderID int64
	start    time.Time
	count    int
	lastSeen time.Time
	stamp    uint64
}

type options struct {
	maxSenders int
	shards     int
	now        func() time.Time
}

// Option configures New
type Option func(*options)

// WithMaxSenders caps the number of tracked sender windows
func WithMaxSenders(n int) Option {
	return func(o *options) { o.maxSenders = n }
}

// WithShards sets the number of independently locked shards
func WithShards(n int) Option {
	return func(o *options) { o.shards = n }
}

// WithClock replaces time.Now, used by tests
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a limiter admitting limit requests per sender per window
func New(limit int, window time.Duration, opts ...Option) *FixedWindow {
	o := options{
		maxSenders: DefaultMaxSenders,
		shards:     defaultShards,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if o.maxSenders < 1 {
		o.maxSenders = 1
	}
	if o.shards < 1 {
		o.shards = 1
	}
	if o.shards > o.maxSenders {
		o.shards = o.maxSenders
	}

	l := &FixedWindow{
		limit:      limit,
		window:     window,
		maxSenders: o.maxSenders,
		now:        o.now,
		shards:     make([]*shard, o.shards),
	}
	for i := range l.shards {
		l.shards[i] = &shard{
			ll:      list.New(),
			windows: make(map[int64]*list.Element),
		}
	}
	return l
}

func (l *FixedWindow) shardFor(senderID int64) *shard {
	return l.shards[uint64(senderID)%uint64(len(l.shards))]
}

// Admit counts one request for senderID and reports whether it is allowed.
// Rejected requests are counted too, so a burst cannot restart the window early.
func (l *FixedWindow) Admit(senderID int64) bool {
	now := l.now()
	s := l.shardFor(senderID)

	s.mu.Lock()
	allowed, found := l.admitExisting(s, senderID, now)
	s.mu.Unlock()

	if !found {
		if l.tracked.Add(1) > int64(l.maxSenders) {
			l.evictStalest()
		}

		s.mu.Lock()
		if allowed, found = l.admitExisting(s, senderID, now); found {
			// created by a concurrent request from the same sender
			l.tracked.Add(-1)
		} else {
			s.windows[senderID] = s.ll.PushFront(&rateWindow{
				senderID: senderID,
				start:    now,
				count:    1,
				lastSeen: now,
				stamp:    l.clock.Add(1),
			})
			allowed = true
		}
		s.mu.Unlock()
	}

	if allowed {
		l.admitted.Add(1)
	} else {
		l.rejected.Add(1)
	}
	return allowed
}

// admitExisting counts a request against a tracked window. Caller holds s.mu.
func (l *FixedWindow) admitExisting(s *shard, senderID int64, now time.Time) (allowed, found bool) {
	el, ok := s.windows[senderID]
	if !ok {
		return false, false
	}

	w := el.Value.(*rateWindow)
	w.lastSeen = now
	w.stamp = l.clock.Add(1)
	s.ll.MoveToFront(el)

	// the window covers [start, start+window] and expires once now is past its end
	if now.After(w.start.Add(l.window)) {
		w.start = now
		w.count = 1
		return true, true
	}
	w.count++
	return w.count <= l.limit, true
}

// evictStalest removes the window with the lowest stamp across all shards
func (l *FixedWindow) evictStalest() {
	l.evictMu.Lock()
	defer l.evictMu.Unlock()

	for {
		var (
			victim *shard
			tail   *list.Element
			oldest uint64
		)
		for _, s := range l.shards {
			s.mu.Lock()
			if back := s.ll.Back(); back != nil {
				if stamp := back.Value.(*rateWindow).stamp; victim == nil || stamp < oldest {
					victim, tail, oldest = s, back, stamp
				}
			}
			s.mu.Unlock()
		}
		if victim == nil {
			// every slot is held by an insert that has not landed yet
			runtime.Gosched()
			continue
		}

		victim.mu.Lock()
		if victim.ll.Back() == tail && tail.Value.(*rateWindow).stamp == oldest {
			victim.ll.Remove(tail)
			delete(victim.windows, tail.Value.(*rateWindow).senderID)
			victim.mu.Unlock()
			l.tracked.Add(-1)
			l.evictions.Add(1)
			return
		}
		victim.mu.Unlock()
	}
}

// Sweep drops windows idle for longer than twice the window duration
func (l *FixedWindow) Sweep(now time.Time) int {
	idle := 2 * l.window
	removed := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for el := s.ll.Back(); el != nil; {
			w := el.Value.(*rateWindow)
			if now.Sub(w.lastSeen) <= idle {
				break
			}
			prev := el.Prev()
			s.ll.Remove(el)
			delete(s.windows, w.senderID)
			l.tracked.Add(-1)
			removed++
			el = prev
		}
		s.mu.Unlock()
	}
	l.swept.Add(uint64(removed))
	return removed
}

// Run sweeps idle windows every interval until ctx is done
func (l *FixedWindow) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = l.window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep(l.now())
		case <-ctx.Done():
			return
		}
	}
}

// Len number of tracked sender windows
func (l *FixedWindow) Len() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += s.ll.Len()
		s.mu.Unlock()
	}
	return n
}

// Stats counters snapshot
func (l *FixedWindow) Stats() Stats {
	return Stats{
		Senders:   l.Len(),
		Admitted:  l.admitted.Load(),
		Rejected:  l.rejected.Load(),
		Evictions: l.evictions.Load(),
		Swept:     l.swept.Load(),
	}
}

// Limit requests admitted per window
func (l *FixedWindow) Limit() int { return l.limit }

// Window window duration
func (l *FixedWindow) Window() time.Duration { return l.window }
