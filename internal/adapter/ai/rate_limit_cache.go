package ai

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// cooldownEntry tracks one rate-limited (provider, model) pair.
type cooldownEntry struct {
	BlockedUntil time.Time
	FailureCount int
	LastFailure  time.Time
}

func (e *cooldownEntry) blocked(now time.Time) bool { return now.Before(e.BlockedUntil) }

// CooldownCache remembers models that recently answered with a rate limit so
// the chain can skip them until their Retry-After window passes. It is safe
// for concurrent use and shared by every request.
type CooldownCache struct {
	mu              sync.RWMutex
	entries         map[string]*cooldownEntry
	defaultDuration time.Duration
	maxDuration     time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewCooldownCache creates a cache. defaultDuration is used when a provider
// gives no Retry-After hint.
func NewCooldownCache(defaultDuration time.Duration) *CooldownCache {
	if defaultDuration <= 0 {
		defaultDuration = 20 * time.Second
	}
	c := &CooldownCache{
		entries:         make(map[string]*cooldownEntry),
		defaultDuration: defaultDuration,
		maxDuration:     10 * time.Minute,
		cleanupInterval: 30 * time.Second,
		now:             time.Now,
		stopCleanup:     make(chan struct{}),
	}
	go c.cleanupRoutine()
	return c
}

func cooldownKey(providerID, modelID string) string { return providerID + "/" + modelID }

// IsBlocked reports whether the model is still inside its cooldown window.
func (c *CooldownCache) IsBlocked(providerID, modelID string) bool {
	return c.Remaining(providerID, modelID) > 0
}

// Remaining returns how long until the model becomes available again.
func (c *CooldownCache) Remaining(providerID, modelID string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[cooldownKey(providerID, modelID)]
	if !ok {
		return 0
	}
	now := c.now()
	if !e.blocked(now) {
		return 0
	}
	return e.BlockedUntil.Sub(now)
}

// RecordRateLimit blocks the model for retryAfter, or the default duration
// when retryAfter is not positive. Windows are capped at maxDuration.
func (c *CooldownCache) RecordRateLimit(providerID, modelID string, retryAfter time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cooldownKey(providerID, modelID)
	e, ok := c.entries[key]
	if !ok {
		e = &cooldownEntry{}
		c.entries[key] = e
	}
	blockFor := retryAfter
	if blockFor <= 0 {
		blockFor = c.defaultDuration
	}
	if blockFor > c.maxDuration {
		blockFor = c.maxDuration
	}
	now := c.now()
	e.FailureCount++
	e.LastFailure = now
	e.BlockedUntil = now.Add(blockFor)

	slog.Warn("model rate-limited; cooling down",
		slog.String("provider", providerID),
		slog.String("model", modelID),
		slog.Duration("retry_after", blockFor),
		slog.Int("failure_count", e.FailureCount))
}

// RecordSuccess clears any cooldown for the model.
func (c *CooldownCache) RecordSuccess(providerID, modelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cooldownKey(providerID, modelID)
	if e, ok := c.entries[key]; ok {
		slog.Info("model recovered after rate limiting",
			slog.String("provider", providerID),
			slog.String("model", modelID),
			slog.Int("previous_failures", e.FailureCount))
		delete(c.entries, key)
	}
}

// Blocked returns the keys ("provider/model") currently cooling down, sorted.
func (c *CooldownCache) Blocked() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	var out []string
	for k, e := range c.entries {
		if e.blocked(now) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (c *CooldownCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

func (c *CooldownCache) cleanupRoutine() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

// cleanup drops entries that are unblocked and have been quiet for a while.
func (c *CooldownCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if !e.blocked(now) && now.Sub(e.LastFailure) > c.defaultDuration*2 {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("cleaned up expired cooldown entries", slog.Int("count", removed))
	}
}
