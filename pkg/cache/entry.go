package cache

import (
	"encoding/json"
	"time"
)

// DefaultTTL is how long a page response stays cached when no TTL is given.
const DefaultTTL = 5 * time.Minute

// Entry is one cached page response.
type Entry struct {
	// TotalHits is the result set size reported with the page.
	TotalHits int `json:"total_hits"`

	// Records are the raw page records, in server order.
	Records []json.RawMessage `json:"records"`

	// CachedAt is when the entry was created.
	CachedAt time.Time `json:"cached_at"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`
}

// NewEntry builds an entry that expires after ttl, or DefaultTTL when ttl <= 0.
func NewEntry(totalHits int, records []json.RawMessage, ttl time.Duration) *Entry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Entry{
		TotalHits: totalHits,
		Records:   records,
		CachedAt:  now,
		Expires:   now.Add(ttl),
	}
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
