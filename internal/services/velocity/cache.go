// Package velocity keeps a bounded, time-windowed history of each user's
// recent transactions for rate and pattern checks. Entries live only in
// memory and expire out of the sliding window; nothing here is persisted.
package velocity

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"corebank/internal/models"
)

// Entry is one transaction snapshot inside a user's window.
type Entry struct {
	Amount    decimal.Decimal
	Timestamp time.Time
	Recipient string
	Location  *models.Location
}

type userWindow struct {
	mu      sync.Mutex
	entries []Entry
}

// Cache is the shared velocity cache. Operations on the same user are
// serialized by a per-user mutex; different users proceed in parallel.
type Cache struct {
	mu    sync.RWMutex
	users map[uint]*userWindow

	window     time.Duration
	maxEntries int

	done chan struct{}
	once sync.Once
}

// NewCache creates a velocity cache and starts the background sweeper.
// Call Close to stop the sweeper.
func NewCache(window time.Duration, maxEntries int, sweepInterval time.Duration) *Cache {
	c := &Cache{
		users:      make(map[uint]*userWindow),
		window:     window,
		maxEntries: maxEntries,
		done:       make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweep(sweepInterval)
	}
	return c
}

// Record appends a transaction snapshot to the user's window.
func (c *Cache) Record(userID uint, e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	w := c.windowFor(userID)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, e)
	w.purgeLocked(time.Now().UTC().Add(-c.window), c.maxEntries)
}

// Count returns the number of the user's transactions inside the trailing
// window.
func (c *Cache) Count(userID uint) int {
	w := c.windowFor(userID)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.purgeLocked(time.Now().UTC().Add(-c.window), c.maxEntries)
	return len(w.entries)
}

// KnownRecipient reports whether the user has sent to this recipient within
// the window.
func (c *Cache) KnownRecipient(userID uint, recipient string) bool {
	if recipient == "" {
		return false
	}
	w := c.windowFor(userID)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.purgeLocked(time.Now().UTC().Add(-c.window), c.maxEntries)
	for _, e := range w.entries {
		if e.Recipient == recipient {
			return true
		}
	}
	return false
}

// LastLocation returns the most recent located entry for the user.
func (c *Cache) LastLocation(userID uint) (Entry, bool) {
	w := c.windowFor(userID)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.purgeLocked(time.Now().UTC().Add(-c.window), c.maxEntries)
	for i := len(w.entries) - 1; i >= 0; i-- {
		if w.entries[i].Location != nil {
			return w.entries[i], true
		}
	}
	return Entry{}, false
}

// Clear drops all windows. Used at process start and by tests.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = make(map[uint]*userWindow)
}

// Close stops the background sweeper.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache) windowFor(userID uint) *userWindow {
	c.mu.RLock()
	w, ok := c.users[userID]
	c.mu.RUnlock()
	if ok {
		return w
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if w, ok = c.users[userID]; ok {
		return w
	}
	w = &userWindow{}
	c.users[userID] = w
	return w
}

// purgeLocked drops expired entries and trims to the entry bound. Caller
// holds the window mutex.
func (w *userWindow) purgeLocked(cutoff time.Time, maxEntries int) {
	firstLive := 0
	for firstLive < len(w.entries) && w.entries[firstLive].Timestamp.Before(cutoff) {
		firstLive++
	}
	if firstLive > 0 {
		w.entries = append(w.entries[:0], w.entries[firstLive:]...)
	}
	if maxEntries > 0 && len(w.entries) > maxEntries {
		w.entries = append(w.entries[:0], w.entries[len(w.entries)-maxEntries:]...)
	}
}

func (c *Cache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-c.window)
			c.mu.RLock()
			windows := make([]*userWindow, 0, len(c.users))
			for _, w := range c.users {
				windows = append(windows, w)
			}
			c.mu.RUnlock()
			for _, w := range windows {
				w.mu.Lock()
				w.purgeLocked(cutoff, c.maxEntries)
				w.mu.Unlock()
			}
		}
	}
}
