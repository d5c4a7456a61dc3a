package database

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/supabase-community/supabase-go"

	"wearly-server/modules/common/config"
)

const outfitImagesTable = "wearly_outfit_images"

// OutfitImage - 생성된 코디 이미지 기록 (wearly_outfit_images)
type OutfitImage struct {
	ID          int64     `json:"id,omitempty"`
	SessionID   string    `json:"session_id"`
	StoragePath string    `json:"storage_path"`
	PublicURL   string    `json:"public_url"`
	Prompt      string    `json:"prompt"`
	Source      string    `json:"source"` // suggestion | liked
	Gender      string    `json:"gender"`
	Region      string    `json:"region"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

type Client struct {
	supabase *supabase.Client
}

// NewClient - Database 클라이언트 생성
func NewClient(cfg *config.Config) (*Client, error) {
	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	return &Client{
		supabase: supabaseClient,
	}, nil
}

// InsertOutfitImage - 생성 이미지 기록 저장
func (c *Client) InsertOutfitImage(record OutfitImage) (*OutfitImage, error) {
	log.Printf("💾 Inserting outfit image record: session=%s path=%s", record.SessionID, record.StoragePath)

	insertData := map[string]interface{}{
		"session_id":   record.SessionID,
		"storage_path": record.StoragePath,
		"public_url":   record.PublicURL,
		"prompt":       record.Prompt,
		"source":       record.Source,
		"gender":       record.Gender,
		"region":       record.Region,
		"size_bytes":   record.SizeBytes,
	}

	data, _, err := c.supabase.From(outfitImagesTable).
		Insert(insertData, false, "", "", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert outfit image: %w", err)
	}

	var rows []OutfitImage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse insert response: %w", err)
	}
	if len(rows) == 0 {
		return &record, nil
	}

	log.Printf("✅ Outfit image recorded: id=%d", rows[0].ID)
	return &rows[0], nil
}

// ListOutfitImages - 세션의 생성 이미지 목록 (최신순)
func (c *Client) ListOutfitImages(sessionID string, limit int) ([]OutfitImage, error) {
	data, _, err := c.supabase.From(outfitImagesTable).
		Select("*", "exact", false).
		Eq("session_id", sessionID).
		Limit(limit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query Supabase: %w", err)
	}

	var rows []OutfitImage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows, nil
}
