package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

const maxRetriesPerKey = 3

// ErrNoImage - 응답에 이미지 파트가 없음
var ErrNoImage = errors.New("no image data in response")

// ContentGenerator - genai.Models 중 이미지 생성에 쓰는 부분
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ClientFactory - API 키 하나로 ContentGenerator 생성
type ClientFactory func(ctx context.Context, apiKey string) (ContentGenerator, error)

// ImageGenerator - 429 발생 시 여러 API 키로 돌아가며 재시도하는 이미지 생성기
type ImageGenerator struct {
	apiKeys    []string
	model      string
	retryWait  time.Duration
	newClient  ClientFactory
	clientsMux sync.Mutex
	clients    map[string]ContentGenerator
}

// NewImageGenerator - Gemini API 백엔드 이미지 생성기
func NewImageGenerator(apiKeys []string, model string) *ImageGenerator {
	return NewImageGeneratorWithFactory(apiKeys, model, 2*time.Second, newGenaiClient)
}

// NewImageGeneratorWithFactory - 클라이언트 생성 방식을 지정
func NewImageGeneratorWithFactory(apiKeys []string, model string, retryWait time.Duration, factory ClientFactory) *ImageGenerator {
	return &ImageGenerator{
		apiKeys:   apiKeys,
		model:     model,
		retryWait: retryWait,
		newClient: factory,
		clients:   make(map[string]ContentGenerator),
	}
}

func newGenaiClient(ctx context.Context, apiKey string) (ContentGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

func (g *ImageGenerator) client(ctx context.Context, apiKey string) (ContentGenerator, error) {
	g.clientsMux.Lock()
	defer g.clientsMux.Unlock()

	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	c, err := g.newClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	g.clients[apiKey] = c
	return c, nil
}

// GenerateContentWithRetry - 키당 최대 3번, 429가 아닌 에러는 즉시 반환
func (g *ImageGenerator) GenerateContentWithRetry(
	ctx context.Context,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	if len(g.apiKeys) == 0 {
		return nil, fmt.Errorf("no API keys provided")
	}

	var lastErr error
	for keyIndex, apiKey := range g.apiKeys {
		client, err := g.client(ctx, apiKey)
		if err != nil {
			log.Printf("⚠️  [Gemini Retry] Failed to create client with key #%d: %v", keyIndex+1, err)
			lastErr = err
			continue
		}

		for attempt := 1; attempt <= maxRetriesPerKey; attempt++ {
			result, err := client.GenerateContent(ctx, g.model, contents, config)
			if err == nil {
				log.Printf("✅ [Gemini Retry] Success with API key #%d (attempt %d/%d)", keyIndex+1, attempt, maxRetriesPerKey)
				return result, nil
			}

			lastErr = err
			if !is429Error(err) {
				log.Printf("❌ [Gemini Retry] Key #%d failed with non-429 error: %v", keyIndex+1, err)
				return nil, err
			}

			log.Printf("⚠️  [Gemini Retry] Key #%d hit rate limit (429) on attempt %d/%d", keyIndex+1, attempt, maxRetriesPerKey)
			if attempt < maxRetriesPerKey {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(g.retryWait):
				}
			}
		}

		log.Printf("⚠️  [Gemini Retry] Key #%d exhausted all %d attempts, trying next key...", keyIndex+1, maxRetriesPerKey)
	}

	return nil, fmt.Errorf("all %d API keys exhausted (%d attempts each), last error: %w", len(g.apiKeys), maxRetriesPerKey, lastErr)
}

// GenerateImage - 프롬프트(+참조 이미지)로 이미지 1장 생성
func (g *ImageGenerator) GenerateImage(ctx context.Context, prompt string, references []*genai.Part, aspectRatio string) ([]byte, error) {
	parts := append([]*genai.Part{genai.NewPartFromText(prompt)}, references...)
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	resp, err := g.GenerateContentWithRetry(ctx, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: aspectRatio,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini image generation failed: %w", err)
	}
	return ExtractImage(resp)
}

// ExtractImage - 응답 후보들 중 첫 InlineData 반환
func ExtractImage(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil {
		return nil, ErrNoImage
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, ErrNoImage
}

// is429Error - 429 Rate Limit 에러인지 확인
func is429Error(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota")
}
