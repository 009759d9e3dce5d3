package application

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultListCacheSize = 256
	defaultListCacheTTL  = 30 * time.Second
)

// ListCache memoizes list query results between mutations. Every mutation
// purges it, and a generation counter keeps a read that raced a mutation from
// storing a stale result.
type ListCache struct {
	mu         sync.Mutex
	entries    *lru.Cache[string, listCacheEntry]
	ttl        time.Duration
	now        func() time.Time
	generation uint64
}

type listCacheEntry struct {
	requests     []AppointmentRequest
	appointments []Appointment
	expiresAt    time.Time
}

// NewListCache builds a cache holding at most size entries for ttl each.
func NewListCache(size int, ttl time.Duration, now func() time.Time) *ListCache {
	if size <= 0 {
		size = defaultListCacheSize
	}
	if ttl <= 0 {
		ttl = defaultListCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	entries, err := lru.New[string, listCacheEntry](size)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &ListCache{entries: entries, ttl: ttl, now: now}
}

// Generation returns a token to pass to the store methods.
func (c *ListCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Purge drops every entry.
func (c *ListCache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.generation++
	c.entries.Purge()
	c.mu.Unlock()
}

// Follow purges the cache for every event received until events is closed or
// ctx is done. It lets a process drop results made stale by writes other
// processes announce on a shared bus.
func (c *ListCache) Follow(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			c.Purge()
		}
	}
}

func (c *ListCache) requests(key string) ([]AppointmentRequest, bool) {
	entry, ok := c.lookup(key)
	if !ok || entry.requests == nil {
		return nil, false
	}
	return cloneRequests(entry.requests), true
}

func (c *ListCache) storeRequests(key string, generation uint64, requests []AppointmentRequest) {
	c.store(key, generation, listCacheEntry{requests: cloneRequests(nonNilRequests(requests))})
}

func (c *ListCache) appointments(key string) ([]Appointment, bool) {
	entry, ok := c.lookup(key)
	if !ok || entry.appointments == nil {
		return nil, false
	}
	return cloneAppointments(entry.appointments), true
}

func (c *ListCache) storeAppointments(key string, generation uint64, appointments []Appointment) {
	c.store(key, generation, listCacheEntry{appointments: cloneAppointments(nonNilAppointments(appointments))})
}

func (c *ListCache) lookup(key string) (listCacheEntry, bool) {
	if c == nil {
		return listCacheEntry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(key)
	if !ok {
		return listCacheEntry{}, false
	}
	if !c.now().Before(entry.expiresAt) {
		c.entries.Remove(key)
		return listCacheEntry{}, false
	}
	return entry, true
}

func (c *ListCache) store(key string, generation uint64, entry listCacheEntry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return
	}
	entry.expiresAt = c.now().Add(c.ttl)
	c.entries.Add(key, entry)
}

func pendingCacheKey(recipientID string) string { return "pending:" + recipientID }

func sentCacheKey(requesterID string) string { return "sent:" + requesterID }

func participantCacheKey(participantID string) string { return "participant:" + participantID }

func nonNilRequests(requests []AppointmentRequest) []AppointmentRequest {
	if requests == nil {
		return []AppointmentRequest{}
	}
	return requests
}

func nonNilAppointments(appointments []Appointment) []Appointment {
	if appointments == nil {
		return []Appointment{}
	}
	return appointments
}

func cloneRequests(requests []AppointmentRequest) []AppointmentRequest {
	if requests == nil {
		return nil
	}
	out := make([]AppointmentRequest, len(requests))
	for i, request := range requests {
		out[i] = cloneRequest(request)
	}
	return out
}

func cloneRequest(request AppointmentRequest) AppointmentRequest {
	cloned := request
	if request.AlternativeSlots != nil {
		cloned.AlternativeSlots = append(request.AlternativeSlots[:0:0], request.AlternativeSlots...)
	}
	cloned.Requester.Avatar = cloneString(request.Requester.Avatar)
	cloned.Recipient.Avatar = cloneString(request.Recipient.Avatar)
	cloned.Message = cloneString(request.Message)
	cloned.ResponseMessage = cloneString(request.ResponseMessage)
	if request.RespondedAt != nil {
		respondedAt := *request.RespondedAt
		cloned.RespondedAt = &respondedAt
	}
	return cloned
}

func cloneAppointments(appointments []Appointment) []Appointment {
	if appointments == nil {
		return nil
	}
	out := make([]Appointment, len(appointments))
	for i, appointment := range appointments {
		out[i] = appointment
		out[i].Participant.Avatar = cloneString(appointment.Participant.Avatar)
		out[i].RequestID = cloneString(appointment.RequestID)
	}
	return out
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
