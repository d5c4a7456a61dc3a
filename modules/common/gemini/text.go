package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"

	generativeai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// NewTextClient - 텍스트/비전용 Gemini 클라이언트 생성 (API 키 인증)
func NewTextClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*generativeai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := generativeai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	log.Println("✅ [Gemini] Text client initialized")
	return client, nil
}

// ResponseText - 첫 후보의 텍스트 파트를 이어붙임
func ResponseText(resp *generativeai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(generativeai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}

// BlockReason - 프롬프트가 차단된 경우 사유, 아니면 빈 문자열
func BlockReason(resp *generativeai.GenerateContentResponse) string {
	if resp == nil || resp.PromptFeedback == nil {
		return ""
	}
	if resp.PromptFeedback.BlockReason == generativeai.BlockReasonUnspecified {
		return ""
	}
	return resp.PromptFeedback.BlockReason.String()
}
