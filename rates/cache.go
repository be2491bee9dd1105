package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/warp/wage-engine/calendar"
)

const (
	keyMinimumWages = "minimum_wages"
	keyStandbyRates = "standby_rates"
)

// CachedSource keeps rate tables in memory for ttl. Callers own the cache;
// the engine only reads the values it is handed.
type CachedSource struct {
	src   Source
	store *cache.Cache
	ttl   time.Duration
}

var _ Source = (*CachedSource)(nil)

func NewCachedSource(src Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		src:   src,
		store: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (c *CachedSource) MinimumWages(ctx context.Context) ([]MinimumWage, error) {
	if v, found := c.store.Get(keyMinimumWages); found {
		return v.([]MinimumWage), nil
	}
	wages, err := c.src.MinimumWages(ctx)
	if err != nil {
		return nil, err
	}
	c.store.Set(keyMinimumWages, wages, c.ttl)
	return wages, nil
}

func (c *CachedSource) StandbyRates(ctx context.Context) ([]StandbyRate, error) {
	if v, found := c.store.Get(keyStandbyRates); found {
		return v.([]StandbyRate), nil
	}
	rates, err := c.src.StandbyRates(ctx)
	if err != nil {
		return nil, err
	}
	c.store.Set(keyStandbyRates, rates, c.ttl)
	return rates, nil
}

func (c *CachedSource) ShabbatTimes(ctx context.Context, from, to time.Time) (calendar.ShabbatTimes, error) {
	key := fmt.Sprintf("shabbat:%s:%s", calendar.ISODate(from), calendar.ISODate(to))
	if v, found := c.store.Get(key); found {
		return v.(calendar.ShabbatTimes), nil
	}
	times, err := c.src.ShabbatTimes(ctx, from, to)
	if err != nil {
		return nil, err
	}
	c.store.Set(key, times, c.ttl)
	return times, nil
}

// Invalidate drops every cached table, e.g. after rates are edited.
func (c *CachedSource) Invalidate() {
	c.store.Flush()
}
