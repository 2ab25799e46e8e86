package datasource

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/metrics"
)

// ResponseCacheConfig configures the on-disk response cache.
type ResponseCacheConfig struct {
	Dir        string
	DefaultTTL time.Duration
	MinTTL     time.Duration
	MaxTTL     time.Duration
}

// DefaultResponseCacheConfig returns recommended defaults.
func DefaultResponseCacheConfig() ResponseCacheConfig {
	return ResponseCacheConfig{
		Dir:        ".cache",
		DefaultTTL: 30 * time.Minute,
		MinTTL:     time.Minute,
		MaxTTL:     6 * time.Hour,
	}
}

// ResponseCache stores fetched bodies on disk, keyed by URL hash. A
// go-cache index carries expiry bookkeeping so reads never stat stale
// files; the TTL comes from the response's Cache-Control max-age when
// present, clamped to [MinTTL, MaxTTL], else DefaultTTL.
type ResponseCache struct {
	cfg    ResponseCacheConfig
	index  *gocache.Cache
	logger *logrus.Logger
}

// NewResponseCache creates the cache directory if needed.
func NewResponseCache(cfg ResponseCacheConfig, logger *logrus.Logger) (*ResponseCache, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &ResponseCache{
		cfg:    cfg,
		index:  gocache.New(cfg.DefaultTTL, 10*time.Minute),
		logger: logger,
	}, nil
}

// Get returns a cached body when present and fresh.
func (rc *ResponseCache) Get(url string) (string, bool) {
	key := cacheKey(url)
	if _, ok := rc.index.Get(key); !ok {
		metrics.CacheMissesTotal.Inc()
		return "", false
	}
	data, err := os.ReadFile(rc.path(key))
	if err != nil {
		rc.index.Delete(key)
		metrics.CacheMissesTotal.Inc()
		return "", false
	}
	metrics.CacheHitsTotal.Inc()
	return string(data), true
}

// Set writes the body to disk and records its expiry.
func (rc *ResponseCache) Set(url, body string, headers http.Header) {
	key := cacheKey(url)
	ttl := rc.ttlFromHeaders(headers)
	if err := os.WriteFile(rc.path(key), []byte(body), 0o644); err != nil {
		rc.logger.WithError(err).WithField("url", url).Debug("Failed to write cache entry")
		return
	}
	rc.index.Set(key, struct{}{}, ttl)
}

// Purge drops the index; disk files are left behind and simply ignored.
func (rc *ResponseCache) Purge() {
	rc.index.Flush()
}

func (rc *ResponseCache) path(key string) string {
	return filepath.Join(rc.cfg.Dir, key+".body")
}

func (rc *ResponseCache) ttlFromHeaders(headers http.Header) time.Duration {
	ttl := rc.cfg.DefaultTTL
	cc := headers.Get("Cache-Control")
	for _, directive := range strings.Split(cc, ",") {
		directive = strings.TrimSpace(strings.ToLower(directive))
		if v, ok := strings.CutPrefix(directive, "max-age="); ok {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				ttl = time.Duration(secs) * time.Second
			}
		}
	}
	if ttl < rc.cfg.MinTTL {
		ttl = rc.cfg.MinTTL
	}
	if ttl > rc.cfg.MaxTTL {
		ttl = rc.cfg.MaxTTL
	}
	return ttl
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
