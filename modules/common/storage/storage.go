package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"wearly-server/modules/common/config"
)

// maxDownloadBytes - 찜한 이미지 다운로드 상한
const maxDownloadBytes = 10 << 20

type Client struct {
	baseURL    string
	serviceKey string
	bucket     string
	publicBase string
	httpClient *http.Client
}

// NewClient - Storage 클라이언트 생성
func NewClient(cfg *config.Config) *Client {
	publicBase := cfg.SupabaseStorageBaseURL
	if publicBase == "" {
		publicBase = fmt.Sprintf("%s/storage/v1/object/public/%s/", strings.TrimRight(cfg.SupabaseURL, "/"), cfg.SupabaseBucket)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.SupabaseURL, "/"),
		serviceKey: cfg.SupabaseServiceKey,
		bucket:     cfg.SupabaseBucket,
		publicBase: publicBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// UploadImage - WebP 이미지를 세션 폴더에 업로드하고 (경로, 공개 URL) 반환
func (c *Client) UploadImage(ctx context.Context, webpData []byte, sessionID string) (string, string, error) {
	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	fileName := fmt.Sprintf("outfit_%d_%d.webp", timestamp, rand.Intn(999999))
	filePath := fmt.Sprintf("outfits/session-%s/%s", sessionID, fileName)

	log.Printf("📤 Uploading WebP image to storage: %s", filePath)

	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(webpData))
	if err != nil {
		return "", "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "image/webp")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	log.Printf("✅ WebP image uploaded successfully: %s (%d bytes)", filePath, len(webpData))
	return filePath, c.PublicURL(filePath), nil
}

// PublicURL - 저장 경로의 공개 URL
func (c *Client) PublicURL(filePath string) string {
	return c.publicBase + filePath
}

// DownloadImage - 공개 URL에서 이미지 다운로드
func (c *Client) DownloadImage(ctx context.Context, url string) ([]byte, error) {
	log.Printf("📥 Downloading image from: %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("image at %s exceeds %d bytes", url, maxDownloadBytes)
	}

	log.Printf("✅ Image downloaded successfully: %d bytes", len(data))
	return data, nil
}
