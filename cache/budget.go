package cache

import "sort"

// User is the cache-owning side of a drawing item. The budget registry
// only needs to drop tiles and measure them; the item keeps ownership.
type User interface {
	// DropCache destroys the user's tile, if any.
	DropCache()

	// CacheBytes returns the bytes held by the user's tile, 0 if none.
	CacheBytes() int
}

// Record is one entry in the candidate list.
type Record struct {
	User  User
	Score float64
	Bytes int
}

// Budget is the registry of cache users owned by a Drawing. It tracks
// which items currently hold a tile, which items score above the
// caching threshold, and enforces the byte budget by dropping tiles on
// the lowest-scoring items first.
//
// The registry is not safe for concurrent use; updates happen on the
// owning host thread only.
type Budget struct {
	limit     int
	threshold float64

	cached     map[User]struct{}
	candidates []Record
	position   map[User]int
}

// DefaultScoreThreshold is the minimum cache score for an item to be
// considered worth caching at all.
const DefaultScoreThreshold = 50000

// NewBudget creates a registry with the given byte limit.
func NewBudget(limitBytes int) *Budget {
	return &Budget{
		limit:     limitBytes,
		threshold: DefaultScoreThreshold,
		cached:    make(map[User]struct{}),
		position:  make(map[User]int),
	}
}

// SetLimit changes the byte budget. Enforce must be called to apply it.
func (b *Budget) SetLimit(bytes int) { b.limit = bytes }

// Limit returns the byte budget.
func (b *Budget) Limit() int { return b.limit }

// SetThreshold changes the minimum score for caching candidates.
func (b *Budget) SetThreshold(score float64) { b.threshold = score }

// Threshold returns the minimum candidate score.
func (b *Budget) Threshold() float64 { return b.threshold }

// UpdateCandidate records the user's new score. Scores below the
// threshold remove the user from the candidate list. Returns whether
// the user is a candidate after the update.
func (b *Budget) UpdateCandidate(u User, score float64, bytes int) bool {
	b.RemoveCandidate(u)
	if score < b.threshold || bytes <= 0 {
		return false
	}
	b.position[u] = len(b.candidates)
	b.candidates = append(b.candidates, Record{User: u, Score: score, Bytes: bytes})
	return true
}

// RemoveCandidate removes the user from the candidate list.
func (b *Budget) RemoveCandidate(u User) {
	i, ok := b.position[u]
	if !ok {
		return
	}
	last := len(b.candidates) - 1
	if i != last {
		b.candidates[i] = b.candidates[last]
		b.position[b.candidates[i].User] = i
	}
	b.candidates = b.candidates[:last]
	delete(b.position, u)
}

// IsCandidate reports whether the user scores above the threshold.
func (b *Budget) IsCandidate(u User) bool {
	_, ok := b.position[u]
	return ok
}

// MarkCached records that the user now holds a tile.
func (b *Budget) MarkCached(u User) {
	b.cached[u] = struct{}{}
}

// UnmarkCached records that the user dropped its tile.
func (b *Budget) UnmarkCached(u User) {
	delete(b.cached, u)
}

// Forget removes the user from every index. Called when an item is
// destroyed.
func (b *Budget) Forget(u User) {
	b.RemoveCandidate(u)
	delete(b.cached, u)
}

// Candidates returns the current candidate records in arbitrary order.
// The slice is owned by the registry.
func (b *Budget) Candidates() []Record {
	return b.candidates
}

// ForEachCached visits every user currently marked cached. The
// callback must not mutate the registry.
func (b *Budget) ForEachCached(fn func(User)) {
	for u := range b.cached {
		fn(u)
	}
}

// CachedBytes sums the bytes currently held by cached users.
func (b *Budget) CachedBytes() int {
	total := 0
	for u := range b.cached {
		total += u.CacheBytes()
	}
	return total
}

// CachedCount returns the number of users holding a tile.
func (b *Budget) CachedCount() int { return len(b.cached) }

// Enforce drops tiles until the cached byte total fits the budget.
// Users are dropped from the lowest candidate score upward; cached
// users that are no longer candidates are dropped first.
func (b *Budget) Enforce() {
	total := b.CachedBytes()
	if total <= b.limit {
		return
	}

	// non-candidates go first
	for u := range b.cached {
		if !b.IsCandidate(u) {
			total -= u.CacheBytes()
			u.DropCache()
			delete(b.cached, u)
			if total <= b.limit {
				return
			}
		}
	}

	order := make([]Record, len(b.candidates))
	copy(order, b.candidates)
	sort.Slice(order, func(i, j int) bool { return order[i].Score < order[j].Score })

	for _, rec := range order {
		if total <= b.limit {
			return
		}
		if _, ok := b.cached[rec.User]; !ok {
			continue
		}
		total -= rec.User.CacheBytes()
		rec.User.DropCache()
		delete(b.cached, rec.User)
	}
}

