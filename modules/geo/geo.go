package geo

import (
	"errors"
	"math"
)

// MaxMatchDistanceKm - 가장 가까운 지역 중심점까지 이 거리를 넘으면 국내가 아닌 것으로 판단
const MaxMatchDistanceKm = 150.0

const earthRadiusKm = 6371.0

// ErrRegionNotFound - 좌표에 해당하는 지역 없음
var ErrRegionNotFound = errors.New("region not found")

// Region - 광역시/도 단위 지역과 대표 좌표
type Region struct {
	Name      string  `json:"name"`
	FullName  string  `json:"fullName"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

var regions = []Region{
	{Name: "서울", FullName: "서울특별시", Latitude: 37.5665, Longitude: 126.9780},
	{Name: "부산", FullName: "부산광역시", Latitude: 35.1796, Longitude: 129.0756},
	{Name: "대구", FullName: "대구광역시", Latitude: 35.8714, Longitude: 128.6014},
	{Name: "인천", FullName: "인천광역시", Latitude: 37.4563, Longitude: 126.7052},
	{Name: "광주", FullName: "광주광역시", Latitude: 35.1595, Longitude: 126.8526},
	{Name: "대전", FullName: "대전광역시", Latitude: 36.3504, Longitude: 127.3845},
	{Name: "울산", FullName: "울산광역시", Latitude: 35.5384, Longitude: 129.3114},
	{Name: "세종", FullName: "세종특별자치시", Latitude: 36.4800, Longitude: 127.2890},
	{Name: "경기", FullName: "경기도", Latitude: 37.4138, Longitude: 127.5183},
	{Name: "강원", FullName: "강원특별자치도", Latitude: 37.8228, Longitude: 128.1555},
	{Name: "충북", FullName: "충청북도", Latitude: 36.6357, Longitude: 127.4917},
	{Name: "충남", FullName: "충청남도", Latitude: 36.5184, Longitude: 126.8000},
	{Name: "전북", FullName: "전북특별자치도", Latitude: 35.7175, Longitude: 127.1530},
	{Name: "전남", FullName: "전라남도", Latitude: 34.8679, Longitude: 126.9910},
	{Name: "경북", FullName: "경상북도", Latitude: 36.4919, Longitude: 128.8889},
	{Name: "경남", FullName: "경상남도", Latitude: 35.4606, Longitude: 128.2132},
	{Name: "제주", FullName: "제주특별자치도", Latitude: 33.4996, Longitude: 126.5312},
}

// Regions - 선택 가능한 지역 목록 (복사본)
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// Lookup - 이름(짧은 이름 또는 정식 명칭)으로 지역 찾기
func Lookup(name string) (Region, bool) {
	for _, r := range regions {
		if r.Name == name || r.FullName == name {
			return r, true
		}
	}
	return Region{}, false
}

// RegionFromCoords - 좌표에서 가장 가까운 지역 중심점
func RegionFromCoords(lat, lon float64) (Region, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Region{}, ErrRegionNotFound
	}

	best := -1
	bestDist := math.MaxFloat64
	for i, r := range regions {
		d := DistanceKm(lat, lon, r.Latitude, r.Longitude)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > MaxMatchDistanceKm {
		return Region{}, ErrRegionNotFound
	}
	return regions[best], nil
}

// DistanceKm - haversine 거리
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
