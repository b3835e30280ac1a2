// Package ratelimit throttles booking mutations per caller and per client IP.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const window = time.Minute

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Config struct {
	PerMinute   int // per caller (athlete or guardian)
	IPPerMinute int // per client IP across callers

	// Clock for testing (nil uses real time)
	Clock Clock
}

func DefaultConfig() *Config {
	return &Config{
		PerMinute:   20,
		IPPerMinute: 120,
	}
}

type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

type entry struct {
	count   int
	firstAt time.Time
	lastAt  time.Time
}

// Limiter counts requests in fixed one-minute windows.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.Mutex
	// Keyed by hash of caller key or IP
	byCaller map[string]*entry
	byIP     map[string]*entry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	defaults := DefaultConfig()
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = defaults.PerMinute
	}
	if cfg.IPPerMinute <= 0 {
		cfg.IPPerMinute = defaults.IPPerMinute
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		byCaller:      make(map[string]*entry),
		byIP:          make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// Allow checks both limits and, when allowed, records the request.
func (l *Limiter) Allow(caller, ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	callerKey := hashKey("caller:", normalizeKey(caller))
	ipKey := hashKey("ip:", ip)

	l.mu.Lock()
	defer l.mu.Unlock()

	if res := check(l.byCaller[callerKey], now, l.config.PerMinute, "caller_limit"); !res.Allowed {
		return res
	}
	if ip != "" {
		if res := check(l.byIP[ipKey], now, l.config.IPPerMinute, "ip_limit"); !res.Allowed {
			return res
		}
		record(l.byIP, ipKey, now)
	}
	record(l.byCaller, callerKey, now)
	return LimitResult{Allowed: true}
}

func check(e *entry, now time.Time, limit int, reason string) LimitResult {
	if e == nil {
		return LimitResult{Allowed: true}
	}
	elapsed := now.Sub(e.firstAt)
	if elapsed < window && e.count >= limit {
		return LimitResult{Allowed: false, RetryAfter: window - elapsed, Reason: reason}
	}
	return LimitResult{Allowed: true}
}

func record(entries map[string]*entry, key string, now time.Time) {
	e := entries[key]
	if e == nil || now.Sub(e.firstAt) >= window {
		entries[key] = &entry{count: 1, firstAt: now, lastAt: now}
		return
	}
	e.count++
	e.lastAt = now
}

func hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entries := range []map[string]*entry{l.byCaller, l.byIP} {
		for k, e := range entries {
			if now.Sub(e.lastAt) > window {
				delete(entries, k)
			}
		}
	}
}

// LogRateLimitExceeded logs a throttled booking request.
func LogRateLimitExceeded(caller, ip string, res LimitResult) {
	log.Warn().
		Str("event", "rate_limit_exceeded").
		Str("caller", caller).
		Str("ip", ip).
		Str("reason", res.Reason).
		Dur("retry_after", res.RetryAfter).
		Msg("Booking rate limit exceeded")
}
