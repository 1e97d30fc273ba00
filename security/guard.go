/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package security

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Settings keys persisted by the guard.
const (
	SettingBlockedIPs      = "ennu_blocked_ips"
	SettingRateLimitConfig = "ennu_rate_limit_config"
)

const defaultIdleTTL = 10 * time.Minute

// Config controls per-IP token buckets.
type Config struct {
	RequestsPerMinute float64 `json:"requests_per_minute"`
	Burst             int     `json:"burst"`
}

// DefaultConfig allows 120 requests per minute with bursts of 30.
func DefaultConfig() Config {
	return Config{RequestsPerMinute: 120, Burst: 30}
}

// Validate rejects non-positive limits.
func (c Config) Validate() error {
	if c.RequestsPerMinute <= 0 || c.Burst <= 0 {
		return fmt.Errorf("%w: %.2f/min burst %d", ErrInvalidConfig, c.RequestsPerMinute, c.Burst)
	}
	return nil
}

func (c Config) limit() rate.Limit {
	return rate.Limit(c.RequestsPerMinute / 60)
}

// SettingsStore persists JSON documents by key.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) ([]byte, error)
	SetSetting(ctx context.Context, key string, value []byte) error
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Guard holds rate limit and block list state for one server.
type Guard struct {
	mu       sync.Mutex
	cfg      Config
	visitors map[string]*visitor
	blocked  map[string]struct{}
	auditor  Auditor
	idleTTL  time.Duration
	now      func() time.Time
}

// NewGuard creates a guard. A nil auditor discards events.
func NewGuard(cfg Config, auditor Auditor) *Guard {
	if cfg.Validate() != nil {
		cfg = DefaultConfig()
	}
	if auditor == nil {
		auditor = NopAuditor{}
	}

	return &Guard{
		cfg:      cfg,
		visitors: map[string]*visitor{},
		blocked:  map[string]struct{}{},
		auditor:  auditor,
		idleTTL:  defaultIdleTTL,
		now:      time.Now,
	}
}

// Config returns the active rate limit settings.
func (g *Guard) Config() Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

// UpdateConfig replaces the limits and resets every bucket.
func (g *Guard) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.cfg = cfg
	g.visitors = map[string]*visitor{}

	return nil
}

// Allow consumes one token for ip.
func (g *Guard) Allow(ip string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	v, ok := g.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(g.cfg.limit(), g.cfg.Burst)}
		g.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

// Prune drops buckets idle longer than the idle TTL.
func (g *Guard) Prune() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.now().Add(-g.idleTTL)
	removed := 0
	for ip, v := range g.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(g.visitors, ip)
			removed++
		}
	}

	return removed
}

// IsBlocked reports whether ip is on the block list.
func (g *Guard) IsBlocked(ip string) bool {
	if normalized, err := normalizeIP(ip); err == nil {
		ip = normalized
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.blocked[ip]
	return ok
}

// Block adds ip to the block list.
func (g *Guard) Block(ip string) error {
	normalized, err := normalizeIP(ip)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.blocked[normalized] = struct{}{}
	g.mu.Unlock()

	logger.Info("IP blocked", "ip", normalized)

	return nil
}

// Unblock removes ip from the block list.
func (g *Guard) Unblock(ip string) {
	ip = strings.TrimSpace(ip)
	if normalized, err := normalizeIP(ip); err == nil {
		ip = normalized
	}

	g.mu.Lock()
	delete(g.blocked, ip)
	g.mu.Unlock()
}

// BlockedIPs returns the block list, sorted.
func (g *Guard) BlockedIPs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0, len(g.blocked))
	for ip := range g.blocked {
		out = append(out, ip)
	}
	sort.Strings(out)

	return out
}

// SetBlockedIPs replaces the block list. Unparseable entries are skipped.
func (g *Guard) SetBlockedIPs(ips []string) {
	blocked := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		normalized, err := normalizeIP(ip)
		if err != nil {
			logger.Warn("Skipping invalid blocked IP", "ip", ip)
			continue
		}
		blocked[normalized] = struct{}{}
	}

	g.mu.Lock()
	g.blocked = blocked
	g.mu.Unlock()
}

// Load reads the block list and rate limit settings from store. Missing
// settings keep the current values.
func (g *Guard) Load(ctx context.Context, store SettingsStore) error {
	raw, err := store.GetSetting(ctx, SettingBlockedIPs)
	if err != nil {
		return fmt.Errorf("failed to read blocked IPs: %w", err)
	}
	if len(raw) > 0 {
		var ips []string
		if err := json.Unmarshal(raw, &ips); err != nil {
			return fmt.Errorf("failed to decode blocked IPs: %w", err)
		}
		g.SetBlockedIPs(ips)
	}

	raw, err = store.GetSetting(ctx, SettingRateLimitConfig)
	if err != nil {
		return fmt.Errorf("failed to read rate limit config: %w", err)
	}
	if len(raw) > 0 {
		var cfg Config
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("failed to decode rate limit config: %w", err)
		}
		if cfg != g.Config() {
			if err := g.UpdateConfig(cfg); err != nil {
				return err
			}
		}
	}

	return nil
}

// Save writes the block list and rate limit settings to store.
func (g *Guard) Save(ctx context.Context, store SettingsStore) error {
	ips, err := json.Marshal(g.BlockedIPs())
	if err != nil {
		return fmt.Errorf("failed to encode blocked IPs: %w", err)
	}
	if err := store.SetSetting(ctx, SettingBlockedIPs, ips); err != nil {
		return fmt.Errorf("failed to save blocked IPs: %w", err)
	}

	cfg, err := json.Marshal(g.Config())
	if err != nil {
		return fmt.Errorf("failed to encode rate limit config: %w", err)
	}
	if err := store.SetSetting(ctx, SettingRateLimitConfig, cfg); err != nil {
		return fmt.Errorf("failed to save rate limit config: %w", err)
	}

	return nil
}

// Watch reloads settings and prunes idle buckets every interval until ctx
// is done.
func (g *Guard) Watch(ctx context.Context, store SettingsStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.Load(ctx, store); err != nil {
				logger.Warn("Failed to reload security settings", "error", err)
			}
			if n := g.Prune(); n > 0 {
				logger.Debug("Pruned idle rate limiters", "count", n)
			}
		}
	}
}

func normalizeIP(raw string) (string, error) {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIP, raw)
	}
	return ip.String(), nil
}
