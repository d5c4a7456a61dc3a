package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"wearly-server/modules/common/metrics"
	"wearly-server/modules/geo"
)

const redisKeyPrefix = "wearly:weather:"

// Service - 지역별 날씨 조회
// L1 메모리(ristretto) → L2 Redis → provider 순서. 같은 지역 동시 조회는 한 번만 로드
type Service struct {
	primary  Provider
	fallback Provider
	ttl      time.Duration

	rc    *ristretto.Cache
	cache *cache.LoadableCache[Forecast]
	rdb   *redis.Client
	group singleflight.Group
}

// NewService - rdb가 nil이면 L2 캐시 없이 동작
func NewService(primary Provider, rdb *redis.Client, ttl time.Duration) (*Service, error) {
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	s := &Service{
		primary: primary,
		ttl:     ttl,
		rc:      rc,
		rdb:     rdb,
	}
	if _, ok := primary.(*SeasonalProvider); !ok {
		s.fallback = NewSeasonalProvider()
	}

	loadFunction := func(ctx context.Context, key any) (Forecast, []store.Option, error) {
		region, ok := key.(string)
		if !ok {
			return Forecast{}, nil, fmt.Errorf("invalid key type provided to weather cache: expected string, got %T", key)
		}
		f, err := s.load(ctx, region)
		if err != nil {
			return Forecast{}, nil, err
		}
		return *f, []store.Option{store.WithExpiration(s.ttl)}, nil
	}

	s.cache = cache.NewLoadable[Forecast](
		loadFunction,
		cache.New[Forecast](ristretto_store.NewRistretto(rc)),
	)

	log.Printf("✅ [Weather] Service initialized (provider: %s, ttl: %s, redis: %t)", primary.Name(), ttl, rdb != nil)
	return s, nil
}

// Get - 지역 이름으로 오늘 날씨 조회
func (s *Service) Get(ctx context.Context, regionName string) (*Forecast, error) {
	if regionName == "" {
		return nil, errors.New("region is required")
	}
	metrics.WeatherCacheLookups.WithLabelValues("request").Inc()

	f, err := s.cache.Get(ctx, regionName)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Close - 캐시 고루틴 정리
func (s *Service) Close() {
	if err := s.cache.Close(); err != nil {
		log.Printf("⚠️  [Weather] Failed to close cache: %v", err)
	}
	s.rc.Close()
}

func (s *Service) load(ctx context.Context, regionName string) (*Forecast, error) {
	v, err, shared := s.group.Do(regionName, func() (interface{}, error) {
		if f := s.readRedis(ctx, regionName); f != nil {
			metrics.WeatherCacheLookups.WithLabelValues("redis").Inc()
			return f, nil
		}

		f, err := s.fetch(ctx, regionName)
		if err != nil {
			return nil, err
		}
		metrics.WeatherCacheLookups.WithLabelValues("provider").Inc()
		s.writeRedis(ctx, regionName, f)
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("🔁 [Weather] Shared in-flight forecast for %s", regionName)
	}
	return v.(*Forecast), nil
}

func (s *Service) fetch(ctx context.Context, regionName string) (*Forecast, error) {
	region, ok := geo.Lookup(regionName)
	if !ok {
		region = geo.Region{Name: regionName}
	}

	f, err := s.primary.Forecast(ctx, region)
	if err == nil {
		log.Printf("🌦️ [Weather] %s: %s %d°C (%d~%d) via %s", regionName, f.Summary, f.Temp, f.MinTemp, f.MaxTemp, f.Source)
		return f, nil
	}
	if s.fallback == nil || ctx.Err() != nil {
		return nil, fmt.Errorf("weather forecast for %s failed: %w", regionName, err)
	}

	log.Printf("⚠️  [Weather] %s failed for %s, using %s: %v", s.primary.Name(), regionName, s.fallback.Name(), err)
	return s.fallback.Forecast(ctx, region)
}

func (s *Service) readRedis(ctx context.Context, regionName string) *Forecast {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+regionName).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️  [Weather] Redis read failed for %s: %v", regionName, err)
		}
		return nil
	}
	var f Forecast
	if err := json.Unmarshal(raw, &f); err != nil {
		log.Printf("⚠️  [Weather] Corrupt cached forecast for %s: %v", regionName, err)
		return nil
	}
	return &f
}

func (s *Service) writeRedis(ctx context.Context, regionName string, f *Forecast) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+regionName, raw, s.ttl).Err(); err != nil {
		log.Printf("⚠️  [Weather] Redis write failed for %s: %v", regionName, err)
	}
}
