package llm

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/grazerhq/grazer/internal/types"
)

// Cache is a content-addressed completion store backed by SQLite. The cache
// key covers everything that determines a completion (model, sampling
// parameters, seed, messages), so identical requests replay the stored
// response instead of hitting the provider again.
type Cache struct {
	db     *sql.DB
	logger *slog.Logger
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS completions (
	key        TEXT PRIMARY KEY,
	model      TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// OpenCache opens (creating if needed) the completion cache at path.
func OpenCache(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, types.WrapError(ErrCacheFailed, "failed to create cache directory", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, types.WrapError(ErrCacheFailed, "failed to open completion cache", err)
	}

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, types.WrapError(ErrCacheFailed, "failed to initialize cache schema", err)
	}

	return &Cache{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached response for the request, if any. Cache read
// failures are logged and reported as misses so a corrupt cache never blocks
// a run.
func (c *Cache) Get(ctx context.Context, req CompletionRequest) (*CompletionResponse, bool) {
	key := cacheKey(req)

	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT response FROM completions WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("completion cache read failed", slog.String("error", err.Error()))
		return nil, false
	}

	var resp CompletionResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		c.logger.Warn("completion cache entry corrupt", slog.String("key", key))
		return nil, false
	}
	return &resp, true
}

// Put stores a completion response under the request's key.
func (c *Cache) Put(ctx context.Context, req CompletionRequest, resp *CompletionResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return types.WrapError(ErrCacheFailed, "failed to encode completion for cache", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO completions (key, model, response) VALUES (?, ?, ?)`,
		cacheKey(req), req.Model, string(raw))
	if err != nil {
		return types.WrapError(ErrCacheFailed, "failed to write completion cache", err)
	}
	return nil
}

// Delete removes the cached response for one request, if present.
func (c *Cache) Delete(ctx context.Context, req CompletionRequest) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM completions WHERE key = ?`, cacheKey(req))
	if err != nil {
		return types.WrapError(ErrCacheFailed, "failed to delete completion cache entry", err)
	}
	return nil
}

// Clear removes all cached completions and reports how many were deleted.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM completions`)
	if err != nil {
		return 0, types.WrapError(ErrCacheFailed, "failed to clear completion cache", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// cacheKey derives the content address for a request. Only fields that
// influence the completion participate.
func cacheKey(req CompletionRequest) string {
	keyed := struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature float64   `json:"temperature"`
		TopP        float64   `json:"top_p"`
		MaxTokens   int       `json:"max_tokens"`
		Seed        int       `json:"seed"`
		Stop        []string  `json:"stop"`
	}{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
		Seed:        req.Seed,
		Stop:        req.StopSequences,
	}

	raw, _ := json.Marshal(keyed)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// CachingProvider wraps a Provider with the completion cache. Hits bypass the
// inner provider entirely; misses are stored after a successful completion.
type CachingProvider struct {
	inner  Provider
	cache  *Cache
	logger *slog.Logger
}

// NewCachingProvider wraps the provider with the cache.
func NewCachingProvider(inner Provider, cache *Cache, logger *slog.Logger) *CachingProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingProvider{inner: inner, cache: cache, logger: logger}
}

// Name returns the inner provider's name.
func (p *CachingProvider) Name() string {
	return p.inner.Name()
}

// InvalidateCompletion drops the cached response for the request so the next
// identical Complete reaches the inner provider. Callers use this when a
// cached response turns out to be unusable, e.g. it failed schema validation;
// without it a retry of the same request would replay the same bad response.
func (p *CachingProvider) InvalidateCompletion(ctx context.Context, req CompletionRequest) error {
	return p.cache.Delete(ctx, req)
}

// Complete serves the request from the cache when possible.
func (p *CachingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if resp, ok := p.cache.Get(ctx, req); ok {
		p.logger.Debug("completion cache hit", slog.String("model", req.Model))
		return resp, nil
	}

	resp, err := p.inner.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Put(ctx, req, resp); err != nil {
		// A failed cache write must not fail the completion.
		p.logger.Warn("completion cache write failed",
			slog.String("error", fmt.Sprintf("%v", err)))
	}
	return resp, nil
}
