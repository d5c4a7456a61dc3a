package chat

import "context"

// WeatherRecommendation - 날씨 요약과 그에 맞는 코디 제안
type WeatherRecommendation struct {
	Summary    string `json:"summary"`
	Temp       int    `json:"temp"`
	MinTemp    int    `json:"minTemp"`
	MaxTemp    int    `json:"maxTemp"`
	Suggestion string `json:"suggestion"`
}

type TextRecommendation struct {
	Advice       string   `json:"advice"`
	QuickReplies []string `json:"quickReplies"`
}

type ImageRecommendation struct {
	Analysis     string   `json:"analysis"`
	Suggestion   string   `json:"suggestion"`
	QuickReplies []string `json:"quickReplies"`
}

type Suggestion struct {
	Suggestion   string   `json:"suggestion"`
	QuickReplies []string `json:"quickReplies"`
}

// LikedImagesResult - ImageURL이 비어있으면 생성 실패 (soft failure)
type LikedImagesResult struct {
	ImageURL   string `json:"imageUrl"`
	Suggestion string `json:"suggestion"`
}

// Recommender - 텍스트/비전 추천 서비스
type Recommender interface {
	WeatherRecommendation(ctx context.Context, s Settings) (*WeatherRecommendation, error)
	TextRecommendation(ctx context.Context, text string, s Settings) (*TextRecommendation, error)
	ImageRecommendation(ctx context.Context, imageDataURL, text string, s Settings) (*ImageRecommendation, error)
	AlternativeSuggestion(ctx context.Context, dislikedPrompt string, s Settings) (*Suggestion, error)
}

// ImageGenerator - 코디 이미지 생성 서비스
// GenerateOutfitImage가 ("", nil)을 반환하면 생성 실패 (soft failure)
type ImageGenerator interface {
	GenerateOutfitImage(ctx context.Context, sessionID, suggestion string, s Settings) (string, error)
	GenerateFromLikedImages(ctx context.Context, sessionID string, images []string, s Settings) (*LikedImagesResult, error)
}
