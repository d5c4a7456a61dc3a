package stylist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"wearly-server/modules/chat"
	"wearly-server/modules/common/fallback"
	"wearly-server/modules/common/metrics"
	"wearly-server/modules/common/utils"
	"wearly-server/modules/weather"
)

// 사용자에게 그대로 보여지는 실패 문구
const (
	WeatherFailedMessage       = "날씨 정보를 가져오는데 실패했습니다."
	RecommendFailedMessage     = "추천을 생성하는데 실패했습니다."
	ImageAnalysisFailedMessage = "이미지 분석에 실패했습니다."
)

// ServiceError - Message는 사용자 노출용, Err는 로그용 원인
type ServiceError struct {
	Message string
	Err     error
}

func (e *ServiceError) Error() string { return e.Message }

func (e *ServiceError) Unwrap() error { return e.Err }

// WeatherSource - 지역별 오늘 날씨
type WeatherSource interface {
	Get(ctx context.Context, region string) (*weather.Forecast, error)
}

// Service - 날씨/텍스트/사진 기반 코디 추천
type Service struct {
	model   Model
	weather WeatherSource
}

var _ chat.Recommender = (*Service)(nil)

func NewService(model Model, weather WeatherSource) *Service {
	return &Service{model: model, weather: weather}
}

func (s *Service) WeatherRecommendation(ctx context.Context, settings chat.Settings) (*chat.WeatherRecommendation, error) {
	f, err := s.weather.Get(ctx, settings.Region)
	if err != nil {
		return nil, &ServiceError{Message: WeatherFailedMessage, Err: err}
	}

	suggestion, err := s.generate(ctx, "weather", Request{Prompt: weatherPrompt(settings, f)})
	if err != nil {
		return nil, &ServiceError{Message: WeatherFailedMessage, Err: err}
	}

	return &chat.WeatherRecommendation{
		Summary:    f.Summary,
		Temp:       f.Temp,
		MinTemp:    f.MinTemp,
		MaxTemp:    f.MaxTemp,
		Suggestion: suggestion,
	}, nil
}

func (s *Service) TextRecommendation(ctx context.Context, text string, settings chat.Settings) (*chat.TextRecommendation, error) {
	raw, err := s.generate(ctx, "text", Request{
		Prompt: textPrompt(text, settings, s.forecast(ctx, settings.Region)),
		Schema: replySchema,
	})
	if err != nil {
		return nil, &ServiceError{Message: RecommendFailedMessage, Err: err}
	}

	advice, replies, err := parseReply(raw)
	if err != nil {
		return nil, &ServiceError{Message: RecommendFailedMessage, Err: err}
	}

	return &chat.TextRecommendation{
		Advice:       advice,
		QuickReplies: fallback.QuickReplies(replies, chat.TextQuickReplies, chat.TextQuickReplies[0]),
	}, nil
}

func (s *Service) ImageRecommendation(ctx context.Context, imageDataURL, text string, settings chat.Settings) (*chat.ImageRecommendation, error) {
	data, mime, err := utils.ParseDataURL(imageDataURL)
	if err != nil {
		return nil, &ServiceError{Message: ImageAnalysisFailedMessage, Err: err}
	}

	analysis, err := s.generate(ctx, "analysis", Request{
		Prompt: analysisPrompt(text, settings),
		Images: []Image{{MIMEType: mime, Data: data}},
	})
	if err != nil {
		return nil, &ServiceError{Message: ImageAnalysisFailedMessage, Err: err}
	}

	raw, err := s.generate(ctx, "improvement", Request{
		Prompt: improvementPrompt(analysis, settings, s.forecast(ctx, settings.Region)),
		Schema: replySchema,
	})
	if err != nil {
		return nil, &ServiceError{Message: ImageAnalysisFailedMessage, Err: err}
	}
	suggestion, replies, err := parseReply(raw)
	if err != nil {
		return nil, &ServiceError{Message: ImageAnalysisFailedMessage, Err: err}
	}

	return &chat.ImageRecommendation{
		Analysis:     analysis,
		Suggestion:   suggestion,
		QuickReplies: fallback.QuickReplies(replies, chat.ImageQuickReplies, chat.ImageQuickReplies[0]),
	}, nil
}

func (s *Service) AlternativeSuggestion(ctx context.Context, dislikedPrompt string, settings chat.Settings) (*chat.Suggestion, error) {
	raw, err := s.generate(ctx, "alternative", Request{
		Prompt: alternativePrompt(dislikedPrompt, settings, s.forecast(ctx, settings.Region)),
		Schema: replySchema,
	})
	if err != nil {
		return nil, &ServiceError{Message: RecommendFailedMessage, Err: err}
	}

	suggestion, replies, err := parseReply(raw)
	if err != nil {
		return nil, &ServiceError{Message: RecommendFailedMessage, Err: err}
	}

	return &chat.Suggestion{
		Suggestion:   suggestion,
		QuickReplies: fallback.QuickReplies(replies, chat.TextQuickReplies, chat.TextQuickReplies[0]),
	}, nil
}

// DescribeLikedOutfits - 좋아요한 코디들을 합친 이미지에서 새 코디 설명 생성
func (s *Service) DescribeLikedOutfits(ctx context.Context, merged Image, count int, settings chat.Settings) (string, error) {
	text, err := s.generate(ctx, "liked", Request{
		Prompt: likedOutfitsPrompt(count, settings),
		Images: []Image{merged},
	})
	if err != nil {
		return "", &ServiceError{Message: ImageAnalysisFailedMessage, Err: err}
	}
	return text, nil
}

// forecast - 프롬프트 보강용. 실패해도 추천은 진행
func (s *Service) forecast(ctx context.Context, region string) *weather.Forecast {
	if s.weather == nil || region == "" {
		return nil
	}
	f, err := s.weather.Get(ctx, region)
	if err != nil {
		log.Printf("⚠️  [Stylist] Weather unavailable for %s: %v", region, err)
		return nil
	}
	return f
}

func (s *Service) generate(ctx context.Context, operation string, req Request) (string, error) {
	log.Printf("📤 [Stylist] %s request (images: %d, json: %t)", operation, len(req.Images), req.Schema != nil)

	text, err := s.model.Generate(ctx, req)
	if err != nil {
		metrics.GeminiRequests.WithLabelValues(operation, "error").Inc()
		log.Printf("❌ [Stylist] %s failed: %v", operation, err)
		return "", err
	}

	metrics.GeminiRequests.WithLabelValues(operation, "ok").Inc()
	return strings.TrimSpace(text), nil
}

type reply struct {
	Text         string   `json:"text"`
	QuickReplies []string `json:"quickReplies"`
}

// parseReply - JSON 응답 파싱. 모델이 스키마를 무시하고 일반 텍스트를 주면 그대로 본문으로 사용
func parseReply(raw string) (string, []string, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var r reply
	if err := json.Unmarshal([]byte(trimmed), &r); err != nil {
		if strings.HasPrefix(trimmed, "{") {
			return "", nil, fmt.Errorf("invalid reply JSON: %w", err)
		}
		r = reply{Text: trimmed}
	}

	text := fallback.SafeString(r.Text, "")
	if text == "" {
		return "", nil, errors.New("reply has no text")
	}
	return text, r.QuickReplies, nil
}
