package stylist

import (
	"context"
	"errors"
	"fmt"

	generativeai "github.com/google/generative-ai-go/genai"

	"wearly-server/modules/common/gemini"
)

// Image - 프롬프트에 첨부하는 이미지
type Image struct {
	MIMEType string
	Data     []byte
}

// Request - 텍스트 생성 요청 하나
type Request struct {
	Prompt string
	Images []Image
	// Schema가 있으면 JSON 응답 강제
	Schema *generativeai.Schema
}

// Model - 텍스트/비전 생성기
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeminiModel - generative-ai-go 기반 Model
type GeminiModel struct {
	client      *generativeai.Client
	modelName   string
	temperature float32
}

func NewGeminiModel(client *generativeai.Client, modelName string) *GeminiModel {
	return &GeminiModel{client: client, modelName: modelName, temperature: 0.7}
}

func (m *GeminiModel) Generate(ctx context.Context, req Request) (string, error) {
	model := m.client.GenerativeModel(m.modelName)
	model.SetTemperature(m.temperature)
	if req.Schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = req.Schema
	}

	parts := make([]generativeai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, generativeai.Blob{MIMEType: img.MIMEType, Data: img.Data})
	}
	parts = append(parts, generativeai.Text(req.Prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	if reason := gemini.BlockReason(resp); reason != "" {
		return "", fmt.Errorf("gemini blocked the prompt: %s", reason)
	}

	text := gemini.ResponseText(resp)
	if text == "" {
		return "", errors.New("empty response from gemini")
	}
	return text, nil
}
