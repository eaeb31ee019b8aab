// Package promo serves promoted lots. They are fetched per category,
// independently of the listing query, and merged into a rendered listing at
// a fixed row cadence.
package promo

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/alfredjeanlab/lots/internal/model"
	"github.com/patrickmn/go-cache"
)

// DefaultEvery is the row cadence used when Interleave is given every <= 0.
const DefaultEvery = 5

// Source fetches the promoted lots of a category.
type Source interface {
	Promoted(ctx context.Context, categoryID int64) ([]model.Lot, error)
}

// Cache caches a Source per category.
type Cache struct {
	src    Source
	cache  *cache.Cache
	logger *slog.Logger
}

// NewCache wraps src with a category-keyed cache whose entries live for ttl.
func NewCache(src Source, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		src:    src,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Promoted returns the cached promoted lots of categoryID, fetching them on
// a miss. Failures are not cached.
func (c *Cache) Promoted(ctx context.Context, categoryID int64) ([]model.Lot, error) {
	key := strconv.FormatInt(categoryID, 10)
	if v, found := c.cache.Get(key); found {
		return v.([]model.Lot), nil
	}
	lots, err := c.src.Promoted(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("cached promoted lots", "category", categoryID, "count", len(lots))
	c.cache.Set(key, lots, cache.DefaultExpiration)
	return lots, nil
}

// Invalidate drops the cached entry of categoryID.
func (c *Cache) Invalidate(categoryID int64) {
	c.cache.Delete(strconv.FormatInt(categoryID, 10))
}

// Interleave inserts one promoted lot after every `every` listing rows,
// cycling through promoted. Promoted lots already present in items are
// skipped. Neither input is modified.
func Interleave(items, promoted []model.Lot, every int) []model.Lot {
	if every <= 0 {
		every = DefaultEvery
	}
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		seen[it.ID] = true
	}
	var promos []model.Lot
	for _, p := range promoted {
		if !seen[p.ID] {
			p.Promoted = true
			promos = append(promos, p)
		}
	}
	if len(promos) == 0 {
		return append([]model.Lot(nil), items...)
	}

	out := make([]model.Lot, 0, len(items)+len(items)/every)
	next := 0
	for i, it := range items {
		out = append(out, it)
		if (i+1)%every == 0 {
			out = append(out, promos[next%len(promos)])
			next++
		}
	}
	return out
}
