package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wearly-server/modules/geo"
)

const defaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoProvider - Open-Meteo forecast API (API 키 불필요)
type OpenMeteoProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenMeteoProvider(baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = defaultOpenMeteoURL
	}
	return &OpenMeteoProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *OpenMeteoProvider) Name() string { return "open-meteo" }

type openMeteoResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) Forecast(ctx context.Context, region geo.Region) (*Forecast, error) {
	if region.Latitude == 0 && region.Longitude == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCoordinates, region.Name)
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(region.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(region.Longitude, 'f', 4, 64))
	q.Set("current", "temperature_2m,weather_code")
	q.Set("daily", "temperature_2m_max,temperature_2m_min")
	q.Set("timezone", "Asia/Seoul")
	q.Set("forecast_days", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open-meteo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("open-meteo returned %d: %s", resp.StatusCode, string(body))
	}

	var data openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode open-meteo response: %w", err)
	}

	temp := int(math.Round(data.Current.Temperature))
	minTemp, maxTemp := temp, temp
	if len(data.Daily.TemperatureMin) > 0 {
		minTemp = int(math.Round(data.Daily.TemperatureMin[0]))
	}
	if len(data.Daily.TemperatureMax) > 0 {
		maxTemp = int(math.Round(data.Daily.TemperatureMax[0]))
	}

	return &Forecast{
		Region:  region.Name,
		Summary: summaryFromWMO(data.Current.WeatherCode),
		Temp:    temp,
		MinTemp: minTemp,
		MaxTemp: maxTemp,
		Source:  p.Name(),
	}, nil
}

// summaryFromWMO - WMO weather code를 요약 문구로 변환
func summaryFromWMO(code int) string {
	switch {
	case code == 0:
		return Clear
	case code == 1:
		return PartlyCloudy
	case code == 2:
		return MostlyCloudy
	case code == 3 || code == 45 || code == 48:
		return Overcast
	case code >= 71 && code <= 77, code == 85, code == 86:
		return Snow
	case code >= 51:
		return Rain
	default:
		return Overcast
	}
}
