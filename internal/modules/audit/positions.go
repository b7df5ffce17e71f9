// README: Last-known actor positions in Redis GEO, refreshed from status reports.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trafficdesk/internal/modules/status"
	"trafficdesk/internal/types"
)

const (
	positionGeoKey = "audit:positions:%s"
	// Positions are advisory; stale entries age out on their own.
	positionTTL = 7 * 24 * time.Hour
)

// PositionStore keeps the most recent reported GPS fix per role identity so
// dispatch screens can show where a driver or rep last checked in. Writes are
// best-effort and happen outside the mutating transaction.
type PositionStore struct {
	redis *redis.Client
}

func NewPositionStore(redis *redis.Client) *PositionStore {
	return &PositionStore{redis: redis}
}

func (s *PositionStore) Record(ctx context.Context, role status.Role, id types.ID, p types.Point) error {
	key := geoKey(role)
	pipe := s.redis.Pipeline()
	pipe.GeoAdd(ctx, key, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	})
	pipe.Expire(ctx, key, positionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Nearby returns role identities within radiusKm of a point, closest first.
func (s *PositionStore) Nearby(ctx context.Context, role status.Role, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, geoKey(role), &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}

func geoKey(role status.Role) string {
	return fmt.Sprintf(positionGeoKey, string(role))
}
