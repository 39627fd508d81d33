package proxy

import (
	"encoding/base64"
	"sort"
	"sync"
	"time"
)

// Target is a registered proxy destination. Targets are never deleted;
// unbounded growth is an accepted limitation of this single-user tool.
type Target struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// TargetID derives the deterministic registry ID for a target URL. Same
// URL always yields the same ID.
func TargetID(targetURL string) string {
	return base64.URLEncoding.EncodeToString([]byte(targetURL))
}

// Registry holds active proxy targets. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]*Target
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]*Target)}
}

// Create registers a target URL and returns its entry. Idempotent:
// repeated calls with the same URL return the original entry.
func (r *Registry) Create(targetURL string) *Target {
	id := TargetID(targetURL)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.targets[id]; ok {
		return existing
	}
	target := &Target{
		ID:        id,
		URL:       targetURL,
		CreatedAt: time.Now(),
	}
	r.targets[id] = target
	return target
}

// Get looks up a target by ID.
func (r *Registry) Get(id string) (*Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	target, ok := r.targets[id]
	return target, ok
}

// List returns all registered targets ordered by creation time.
func (r *Registry) List() []*Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Target, 0, len(r.targets))
	for _, t := range r.targets {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}
