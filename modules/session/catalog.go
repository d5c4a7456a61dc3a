package session

import (
	"slices"

	"wearly-server/modules/chat"
)

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Color struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Catalog - 설정 화면 선택지
type Catalog struct {
	Genders []Option `json:"genders"`
	Tones   []Option `json:"tones"`
	Colors  []Color  `json:"colors"`
}

var palette = []Color{
	{Name: "블랙", Value: "#2F2F2F"}, {Name: "차콜", Value: "#36454F"}, {Name: "그레이", Value: "#808080"},
	{Name: "실버", Value: "#C0C0C0"}, {Name: "화이트", Value: "#FFFFFF"}, {Name: "크림", Value: "#FFFDD0"},
	{Name: "베이지", Value: "#F5F5DC"}, {Name: "브라운", Value: "#A52A2A"}, {Name: "카키", Value: "#C3B091"},
	{Name: "올리브", Value: "#808000"}, {Name: "네이비", Value: "#000080"}, {Name: "블루", Value: "#ADD8E6"},
	{Name: "스카이블루", Value: "#87CEEB"}, {Name: "민트", Value: "#3EB489"}, {Name: "그린", Value: "#90EE90"},
	{Name: "라벤더", Value: "#E6E6FA"}, {Name: "퍼플", Value: "#DA70D6"}, {Name: "핑크", Value: "#FFC0CB"},
	{Name: "버건디", Value: "#800020"}, {Name: "레드", Value: "#FF6347"}, {Name: "코랄", Value: "#FF7F50"},
	{Name: "옐로우", Value: "#FFFFE0"}, {Name: "머스타드", Value: "#FFDB58"},
}

func DefaultCatalog() Catalog {
	genders := []Option{}
	for _, g := range []chat.Gender{chat.GenderMale, chat.GenderFemale, chat.GenderUnisex} {
		genders = append(genders, Option{Value: string(g), Label: chat.GenderLabel(g)})
	}
	tones := []Option{}
	for _, t := range []chat.Tone{chat.ToneFriendly, chat.ToneWitty, chat.ToneCritical} {
		tones = append(tones, Option{Value: string(t), Label: chat.ToneLabel(t)})
	}
	return Catalog{Genders: genders, Tones: tones, Colors: slices.Clone(palette)}
}

// isPaletteColor - 선호색이 팔레트에 있는 이름인지
func isPaletteColor(name string) bool {
	return slices.ContainsFunc(palette, func(c Color) bool { return c.Name == name })
}
