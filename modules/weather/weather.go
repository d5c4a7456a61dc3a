package weather

import (
	"context"
	"errors"
	"fmt"

	"wearly-server/modules/geo"
)

// 날씨 요약 문구
const (
	Clear        = "맑음"
	PartlyCloudy = "구름 조금"
	MostlyCloudy = "구름 많음"
	Overcast     = "흐림"
	Rain         = "비"
	Snow         = "눈"
)

// ErrNoCoordinates - 좌표 기반 provider가 카탈로그에 없는 지역을 받았을 때
var ErrNoCoordinates = errors.New("region has no coordinates")

// Forecast - 지역 하나의 오늘 날씨 (섭씨, 정수)
type Forecast struct {
	Region  string `json:"region"`
	Summary string `json:"summary"`
	Temp    int    `json:"temp"`
	MinTemp int    `json:"minTemp"`
	MaxTemp int    `json:"maxTemp"`
	Source  string `json:"source"`
}

// Description - 프롬프트에 넣는 한 줄 설명
func (f *Forecast) Description() string {
	return fmt.Sprintf("%s 지역의 날씨는 %s이며, 기온은 %d도입니다.", f.Region, f.Summary, f.Temp)
}

// Provider - 날씨 데이터 소스
type Provider interface {
	Name() string
	Forecast(ctx context.Context, region geo.Region) (*Forecast, error)
}
