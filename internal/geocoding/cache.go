package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"time"
)

// Cached is a read-through Redis cache in front of another Resolver. Reverse
// lookups are keyed by coordinates rounded to ~110m so nearby requests share
// entries; forward lookups by the lowercased address string. Cache failures
// fall through to the inner resolver.
type Cached struct {
	inner Resolver
	rc    *redis.Client
	ttl   time.Duration
}

func NewCached(inner Resolver, rc *redis.Client, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cached{inner: inner, rc: rc, ttl: ttl}
}

type cachedCoords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c *Cached) Geocode(ctx context.Context, addr Address) (float64, float64, error) {
	key := "geocode:" + strings.ToLower(buildAddressString(addr))

	if s, err := c.rc.Get(ctx, key).Result(); err == nil && s != "" {
		var out cachedCoords
		if json.Unmarshal([]byte(s), &out) == nil {
			return out.Lat, out.Lng, nil
		}
	}

	lat, lng, err := c.inner.Geocode(ctx, addr)
	if err != nil {
		return 0, 0, err
	}

	if b, err := json.Marshal(cachedCoords{Lat: lat, Lng: lng}); err == nil {
		_ = c.rc.Set(ctx, key, string(b), c.ttl).Err()
	}
	return lat, lng, nil
}

func (c *Cached) ReverseGeocode(ctx context.Context, lat, lng float64) (*Address, error) {
	key := fmt.Sprintf("revgeo:%.3f:%.3f", lat, lng)

	if s, err := c.rc.Get(ctx, key).Result(); err == nil && s != "" {
		var out Address
		if json.Unmarshal([]byte(s), &out) == nil {
			return &out, nil
		}
	}

	addr, err := c.inner.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(addr); err == nil {
		_ = c.rc.Set(ctx, key, string(b), c.ttl).Err()
	}
	return addr, nil
}
