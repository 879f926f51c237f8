package placefile

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/buoy-placefile/internal/domain"
	"github.com/couchcryptid/buoy-placefile/internal/observability"
	"github.com/couchcryptid/buoy-placefile/internal/units"
)

// CachedRenderer memoizes rendered placefiles per snapshot generation and
// query point. A new snapshot generation never hits an old entry.
type CachedRenderer struct {
	inner   *Renderer
	cache   *lru.Cache[string, cachedRender]
	metrics *observability.Metrics
}

type cachedRender struct {
	body    []byte
	summary Summary
}

// NewCachedRenderer wraps inner with an LRU cache of maxEntries renders.
func NewCachedRenderer(inner *Renderer, maxEntries int, metrics *observability.Metrics) (*CachedRenderer, error) {
	cache, err := lru.New[string, cachedRender](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create render cache: %w", err)
	}
	return &CachedRenderer{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedRenderer) RenderPlacefile(req Request, snap domain.Snapshot) ([]byte, Summary, error) {
	key := snap.Generation + "|" + units.Plain(req.Lat) + "|" + units.Plain(req.Lon)
	if hit, ok := c.cache.Get(key); ok {
		c.metrics.RenderCache.WithLabelValues("hit").Inc()
		return hit.body, hit.summary, nil
	}
	c.metrics.RenderCache.WithLabelValues("miss").Inc()

	body, sum, err := c.inner.RenderPlacefile(req, snap)
	if err != nil {
		return nil, sum, err
	}
	c.cache.Add(key, cachedRender{body: body, summary: sum})
	return body, sum, nil
}
