package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"order-fulfillment-service/internal/domain"
	"order-fulfillment-service/internal/platform/obs"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

const defaultRedisKeyPrefix = "geocode:"

type redisCoordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RedisGeocodeStore shares geocode entries between service instances.
// Keys never expire; SETNX keeps entries immutable once written.
type RedisGeocodeStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisGeocodeStore(rdb redis.UniversalClient) *RedisGeocodeStore {
	return &RedisGeocodeStore{rdb: rdb, prefix: defaultRedisKeyPrefix}
}

// Build a store from a redis:// URL.
func NewRedisGeocodeStoreFromURL(url string) (*RedisGeocodeStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis geocode store: parse url: %w", err)
	}
	return NewRedisGeocodeStore(redis.NewClient(opt)), nil
}

func (s *RedisGeocodeStore) key(address string) string { return s.prefix + address }

// Fetch cached coordinates for the given addresses with a single MGET.
func (s *RedisGeocodeStore) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.redis.GetMany")(&err)

	if s.rdb == nil {
		return nil, errors.New("geocode store: redis client is nil")
	}

	uniq := uniqueNonEmpty(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	keys := make([]string, 0, len(uniq))
	for _, a := range uniq {
		keys = append(keys, s.key(a))
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: redis mget: %w", err)
	}

	out := make(map[string]domain.Coordinates, len(uniq))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rc redisCoordinates
		if err := json.Unmarshal([]byte(raw), &rc); err != nil {
			return nil, fmt.Errorf("get geocode cache: decode %q: %w", uniq[i], err)
		}
		out[uniq[i]] = domain.Coordinates{Lat: rc.Lat, Lon: rc.Lon}
	}

	return out, nil
}

// Store entries with SETNX so an existing address is never overwritten.
func (s *RedisGeocodeStore) PutMany(ctx context.Context, entries map[string]domain.Coordinates) error {
	if s.rdb == nil {
		return errors.New("geocode store: redis client is nil")
	}

	if len(entries) == 0 {
		return nil
	}

	pipe := s.rdb.Pipeline()
	for addr, c := range entries {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}
		data, err := json.Marshal(redisCoordinates{Lat: c.Lat, Lon: c.Lon})
		if err != nil {
			return fmt.Errorf("insert geocode cache address=%q: %w", addr, err)
		}
		pipe.SetNX(ctx, s.key(addr), data, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert geocode cache: redis pipeline: %w", err)
	}
	return nil
}

func (s *RedisGeocodeStore) Close() error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
