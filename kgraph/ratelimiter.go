package kgraph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter bounds outbound provider call rate independent of a provider's
// own worker-pool concurrency (spec.md §3's ambient resource controls). It
// is optional and disabled by default.
type RateLimiter interface {
	Allow(key string) bool
	Wait(ctx context.Context, key string) error
	Reserve(key string) *Reservation
	Stats(key string) RateLimitStats
}

// RateLimitConfig configures a RateLimiter.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	PerKey            bool
	KeyTimeout        time.Duration
	WaitTimeout       time.Duration
}

// DefaultRateLimitConfig returns sensible rate and burst values with Enabled
// set false. NewRateLimiter does not read Enabled: a limiter built from any
// valid config always enforces its rate.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           false,
		RequestsPerSecond: 10.0,
		BurstSize:         20,
		PerKey:            false,
		KeyTimeout:        5 * time.Minute,
		WaitTimeout:       30 * time.Second,
	}
}

// RateLimitStats reports rate limiter usage, keyed globally or per-key.
type RateLimitStats struct {
	Allowed         int64
	Denied          int64
	Waited          int64
	TotalWaitTime   time.Duration
	ActiveKeys      int
	AvailableTokens float64
	LastUpdate      time.Time
}

// Reservation is a claimed rate-limit slot returned by RateLimiter.Reserve.
type Reservation struct {
	ok        bool
	delay     time.Duration
	timeToAct time.Time
	cancel    func()
}

func (r *Reservation) OK() bool { return r.ok }

func (r *Reservation) Delay() time.Duration {
	if !r.ok {
		return 0
	}
	if d := time.Until(r.timeToAct); d > 0 {
		return d
	}
	return 0
}

func (r *Reservation) Cancel() {
	if r.cancel != nil {
		r.cancel()
	}
}

// tokenBucketLimiter implements RateLimiter over golang.org/x/time/rate,
// optionally partitioned per key (e.g. per provider, per domain).
type tokenBucketLimiter struct {
	config RateLimitConfig

	globalLimiter *rate.Limiter
	globalStats   *rateLimitStats

	perKeyLimiters map[string]*perKeyLimiter
	mu             sync.RWMutex

	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

type perKeyLimiter struct {
	limiter    *rate.Limiter
	stats      *rateLimitStats
	lastAccess time.Time
	mu         sync.RWMutex
}

type rateLimitStats struct {
	allowed       int64
	denied        int64
	waited        int64
	totalWaitTime time.Duration
	lastUpdate    time.Time
	mu            sync.RWMutex
}

// NewRateLimiter constructs a token-bucket RateLimiter.
func NewRateLimiter(config RateLimitConfig) (RateLimiter, error) {
	if config.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("kgraph: RequestsPerSecond must be positive, got %f", config.RequestsPerSecond)
	}
	if config.BurstSize < 1 {
		return nil, fmt.Errorf("kgraph: BurstSize must be >= 1, got %d", config.BurstSize)
	}
	if config.KeyTimeout == 0 {
		config.KeyTimeout = 5 * time.Minute
	}
	if config.WaitTimeout == 0 {
		config.WaitTimeout = 30 * time.Second
	}

	limiter := &tokenBucketLimiter{
		config:         config,
		globalStats:    &rateLimitStats{lastUpdate: time.Now()},
		perKeyLimiters: make(map[string]*perKeyLimiter),
		stopCleanup:    make(chan struct{}),
	}

	if !config.PerKey {
		limiter.globalLimiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.BurstSize)
	} else {
		go limiter.cleanupUnusedLimiters()
	}

	return limiter, nil
}

func (tb *tokenBucketLimiter) Allow(key string) bool {
	limiter, stats := tb.getLimiterAndStats(key)
	allowed := limiter.Allow()

	stats.mu.Lock()
	if allowed {
		stats.allowed++
	} else {
		stats.denied++
	}
	stats.lastUpdate = time.Now()
	stats.mu.Unlock()

	if tb.config.PerKey && key != "" {
		tb.updateLastAccess(key)
	}
	return allowed
}

func (tb *tokenBucketLimiter) Wait(ctx context.Context, key string) error {
	limiter, stats := tb.getLimiterAndStats(key)

	if tb.config.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tb.config.WaitTimeout)
		defer cancel()
	}

	start := time.Now()
	err := limiter.Wait(ctx)
	waited := time.Since(start)

	stats.mu.Lock()
	if err == nil {
		stats.waited++
		stats.totalWaitTime += waited
		stats.allowed++
	}
	stats.lastUpdate = time.Now()
	stats.mu.Unlock()

	if tb.config.PerKey && key != "" {
		tb.updateLastAccess(key)
	}
	return err
}

func (tb *tokenBucketLimiter) Reserve(key string) *Reservation {
	limiter, stats := tb.getLimiterAndStats(key)
	res := limiter.Reserve()
	if !res.OK() {
		return &Reservation{ok: false}
	}

	delay := res.Delay()
	timeToAct := time.Now().Add(delay)

	stats.mu.Lock()
	if delay > 0 {
		stats.waited++
		stats.totalWaitTime += delay
	}
	stats.allowed++
	stats.lastUpdate = time.Now()
	stats.mu.Unlock()

	if tb.config.PerKey && key != "" {
		tb.updateLastAccess(key)
	}

	return &Reservation{
		ok:        true,
		delay:     delay,
		timeToAct: timeToAct,
		cancel: func() {
			res.Cancel()
			stats.mu.Lock()
			stats.allowed--
			stats.mu.Unlock()
		},
	}
}

func (tb *tokenBucketLimiter) Stats(key string) RateLimitStats {
	limiter, stats := tb.getLimiterAndStats(key)

	stats.mu.RLock()
	defer stats.mu.RUnlock()

	result := RateLimitStats{
		Allowed:         stats.allowed,
		Denied:          stats.denied,
		Waited:          stats.waited,
		TotalWaitTime:   stats.totalWaitTime,
		LastUpdate:      stats.lastUpdate,
		AvailableTokens: limiter.Tokens(),
	}
	if tb.config.PerKey {
		tb.mu.RLock()
		result.ActiveKeys = len(tb.perKeyLimiters)
		tb.mu.RUnlock()
	}
	return result
}

func (tb *tokenBucketLimiter) getLimiterAndStats(key string) (*rate.Limiter, *rateLimitStats) {
	if !tb.config.PerKey {
		return tb.globalLimiter, tb.globalStats
	}

	tb.mu.RLock()
	pkl, exists := tb.perKeyLimiters[key]
	tb.mu.RUnlock()
	if exists {
		return pkl.limiter, pkl.stats
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()
	if pkl, exists := tb.perKeyLimiters[key]; exists {
		return pkl.limiter, pkl.stats
	}

	pkl = &perKeyLimiter{
		limiter:    rate.NewLimiter(rate.Limit(tb.config.RequestsPerSecond), tb.config.BurstSize),
		stats:      &rateLimitStats{lastUpdate: time.Now()},
		lastAccess: time.Now(),
	}
	tb.perKeyLimiters[key] = pkl
	return pkl.limiter, pkl.stats
}

func (tb *tokenBucketLimiter) updateLastAccess(key string) {
	tb.mu.RLock()
	pkl, exists := tb.perKeyLimiters[key]
	tb.mu.RUnlock()
	if exists {
		pkl.mu.Lock()
		pkl.lastAccess = time.Now()
		pkl.mu.Unlock()
	}
}

func (tb *tokenBucketLimiter) cleanupUnusedLimiters() {
	ticker := time.NewTicker(tb.config.KeyTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tb.performCleanup()
		case <-tb.stopCleanup:
			return
		}
	}
}

func (tb *tokenBucketLimiter) performCleanup() {
	now := time.Now()
	var keysToDelete []string

	tb.mu.RLock()
	for key, pkl := range tb.perKeyLimiters {
		pkl.mu.RLock()
		if now.Sub(pkl.lastAccess) > tb.config.KeyTimeout {
			keysToDelete = append(keysToDelete, key)
		}
		pkl.mu.RUnlock()
	}
	tb.mu.RUnlock()

	if len(keysToDelete) > 0 {
		tb.mu.Lock()
		for _, key := range keysToDelete {
			delete(tb.perKeyLimiters, key)
		}
		tb.mu.Unlock()
	}
}

// Stop halts the per-key cleanup goroutine. Safe to call multiple times.
func (tb *tokenBucketLimiter) Stop() {
	tb.cleanupOnce.Do(func() {
		close(tb.stopCleanup)
	})
}
