package xform

import (
	"sort"
	"sync"
	"time"
)

// DefaultResultCapacity bounds how many responses a ResultTracker keeps
const DefaultResultCapacity = 100

// TrackedResult is a response plus the time it was produced
type TrackedResult struct {
	Response  *TransformResponse `json:"response"`
	Timestamp time.Time          `json:"timestamp"`
}

// ResultTracker keeps the most recent transform responses for HTTP endpoints.
// When full, the oldest entry is evicted.
type ResultTracker struct {
	mu       sync.RWMutex
	results  map[string]*TrackedResult
	capacity int
	now      func() time.Time
}

// NewResultTracker creates a tracker holding at most capacity results.
// A non-positive capacity uses DefaultResultCapacity.
func NewResultTracker(capacity int) *ResultTracker {
	if capacity <= 0 {
		capacity = DefaultResultCapacity
	}
	return &ResultTracker{
		results:  make(map[string]*TrackedResult),
		capacity: capacity,
		now:      time.Now,
	}
}

// Record stores resp under its ID, replacing any earlier result with that ID.
// Responses without an ID are not tracked.
func (rt *ResultTracker) Record(resp *TransformResponse) {
	if resp == nil || resp.ID == "" {
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if _, exists := rt.results[resp.ID]; !exists && len(rt.results) >= rt.capacity {
		rt.evictOldestLocked()
	}
	rt.results[resp.ID] = &TrackedResult{Response: resp, Timestamp: rt.now()}
}

func (rt *ResultTracker) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, r := range rt.results {
		if oldestID == "" || r.Timestamp.Before(oldest) {
			oldestID = id
			oldest = r.Timestamp
		}
	}
	delete(rt.results, oldestID)
}

// Get returns the result recorded for id
func (rt *ResultTracker) Get(id string) (*TrackedResult, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	r, ok := rt.results[id]
	if !ok {
		return nil, false
	}
	copied := *r
	return &copied, true
}

// List returns all tracked results, newest first
func (rt *ResultTracker) List() []TrackedResult {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	list := make([]TrackedResult, 0, len(rt.results))
	for _, r := range rt.results {
		list = append(list, *r)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Timestamp.Equal(list[j].Timestamp) {
			return list[i].Response.ID < list[j].Response.ID
		}
		return list[i].Timestamp.After(list[j].Timestamp)
	})
	return list
}

// Len returns the number of tracked results
func (rt *ResultTracker) Len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.results)
}
