package weather

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"wearly-server/modules/geo"
)

var conditions = []string{Clear, PartlyCloudy, MostlyCloudy, Overcast, Rain, Snow}

// SeasonalProvider - 외부 API 없이 월별 기온대와 가중치로 날씨를 추정
type SeasonalProvider struct {
	mu   sync.Mutex
	rng  *rand.Rand
	now  func() time.Time
	zone *time.Location
}

type SeasonalOption func(*SeasonalProvider)

// WithRand - 난수 소스 고정 (테스트용)
func WithRand(r *rand.Rand) SeasonalOption {
	return func(p *SeasonalProvider) { p.rng = r }
}

// WithClock - 현재 시각 함수 교체
func WithClock(now func() time.Time) SeasonalOption {
	return func(p *SeasonalProvider) { p.now = now }
}

func NewSeasonalProvider(opts ...SeasonalOption) *SeasonalProvider {
	zone, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		zone = time.FixedZone("KST", 9*60*60)
	}
	p := &SeasonalProvider{
		rng:  rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		now:  time.Now,
		zone: zone,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *SeasonalProvider) Name() string { return "seasonal" }

func (p *SeasonalProvider) Forecast(ctx context.Context, region geo.Region) (*Forecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, variation := seasonBand(p.now().In(p.zone).Month())

	p.mu.Lock()
	defer p.mu.Unlock()

	temp := jsRound(base + (p.rng.Float64()*variation - variation/2))
	minTemp := temp - jsRound(p.rng.Float64()*3+2)
	maxTemp := temp + jsRound(p.rng.Float64()*3+2)

	weights := conditionWeights(temp)
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := p.rng.Float64() * total
	idx := 0
	for i, w := range weights {
		r -= w
		if r <= 0 {
			idx = i
			break
		}
	}

	return &Forecast{
		Region:  region.Name,
		Summary: conditions[idx],
		Temp:    temp,
		MinTemp: minTemp,
		MaxTemp: maxTemp,
		Source:  p.Name(),
	}, nil
}

// seasonBand - 월별 기준 기온과 변동폭
func seasonBand(month time.Month) (base, variation float64) {
	switch {
	case month == time.December || month <= time.February:
		return 0, 8
	case month <= time.May:
		return 15, 8
	case month <= time.August:
		return 28, 5
	default:
		return 18, 7
	}
}

// conditionWeights - conditions 순서대로의 가중치. 추울수록 눈/흐림, 더울수록 맑음
func conditionWeights(temp int) []float64 {
	switch {
	case temp < 5:
		return []float64{2, 2, 3, 3, 1, 2}
	case temp > 25:
		return []float64{5, 3, 2, 1, 1, 0}
	default:
		return []float64{3, 3, 3, 2, 1, 0}
	}
}

// jsRound - .5는 항상 +방향으로 반올림
func jsRound(x float64) int {
	return int(math.Floor(x + 0.5))
}
