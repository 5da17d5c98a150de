package publish

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/tsdgen/pkg/config"
	"github.com/gnana997/tsdgen/pkg/doclet"
)

// DefaultCacheSize is the number of compiled outputs a Compiler keeps.
const DefaultCacheSize = 64

// Compiler memoizes Compile. Long-running modes (watch, serve) see the same
// doclet sets repeatedly; an identical set and identical output options
// reuse the previous text.
type Compiler struct {
	cache  *lru.Cache[string, string]
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// CompilerStats reports cache behaviour.
type CompilerStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// NewCompiler creates a Compiler holding up to size outputs. A size of 0
// uses DefaultCacheSize.
func NewCompiler(size int, logger *slog.Logger) (*Compiler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := lru.NewWithEvict(size, func(key string, _ string) {
		logger.Debug("evicted compiled declarations", "key", key[:12])
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create compile cache")
	}

	return &Compiler{cache: cache, logger: logger}, nil
}

// Compile returns the cached text for this input or compiles it.
func (c *Compiler) Compile(doclets []*doclet.Doclet, cfg config.Config) (string, error) {
	text, _, err := c.CompileCached(doclets, cfg)
	return text, err
}

// CompileCached is Compile that also reports whether the text came from
// the cache.
func (c *Compiler) CompileCached(doclets []*doclet.Doclet, cfg config.Config) (text string, hit bool, err error) {
	key, err := cacheKey(doclets, cfg)
	if err != nil {
		return "", false, err
	}

	if text, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		c.logger.Debug("compile cache hit", "key", key[:12])
		return text, true, nil
	}
	c.misses.Add(1)

	text, err = Compile(doclets, cfg, c.logger)
	if err != nil {
		return "", false, err
	}
	c.cache.Add(key, text)
	return text, false, nil
}

// Purge drops every cached output.
func (c *Compiler) Purge() {
	c.cache.Purge()
}

// Stats returns hit and miss counts.
func (c *Compiler) Stats() CompilerStats {
	return CompilerStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.cache.Len(),
	}
}

// cacheKey hashes the msgpack encoding of the doclets together with the
// options that change the emitted text.
func cacheKey(doclets []*doclet.Doclet, cfg config.Config) (string, error) {
	h := sha256.New()
	h.Write([]byte(cfg.Strategy()))
	h.Write([]byte{0})
	h.Write([]byte(cfg.ModuleName))
	h.Write([]byte{0})
	if err := doclet.Encode(h, doclets, doclet.FormatMsgpack); err != nil {
		return "", errors.Wrap(err, "failed to hash doclets")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
