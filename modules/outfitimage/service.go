package outfitimage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"wearly-server/modules/chat"
	"wearly-server/modules/common/database"
	"wearly-server/modules/common/fallback"
	"wearly-server/modules/common/gemini"
	"wearly-server/modules/common/metrics"
	"wearly-server/modules/common/utils"
	"wearly-server/modules/stylist"
)

const (
	// GenerationFailedMessage - 이미지 생성 호출 자체가 실패했을 때 사용자 노출 문구
	GenerationFailedMessage = "이미지 생성에 실패했습니다."
	// LoadFailedMessage - 내코디 이미지를 하나도 불러오지 못했을 때
	LoadFailedMessage = "내코디 이미지를 불러오지 못했습니다."

	mergeCellSize   = 512
	webpQuality     = 85
	maxParallelLoad = 4
)

// Source 값 (wearly_outfit_images.source)
const (
	SourceSuggestion = "suggestion"
	SourceLiked      = "liked"
)

type Generator interface {
	GenerateImage(ctx context.Context, prompt string, references []*genai.Part, aspectRatio string) ([]byte, error)
}

type Describer interface {
	DescribeLikedOutfits(ctx context.Context, merged stylist.Image, count int, settings chat.Settings) (string, error)
}

type Downloader interface {
	DownloadImage(ctx context.Context, url string) ([]byte, error)
}

type Uploader interface {
	UploadImage(ctx context.Context, webpData []byte, sessionID string) (string, string, error)
}

type Recorder interface {
	InsertOutfitImage(record database.OutfitImage) (*database.OutfitImage, error)
	ListOutfitImages(sessionID string, limit int) ([]database.OutfitImage, error)
}

// Service - 코디 이미지 생성/저장
// Storage가 설정되지 않으면 WebP data URL을 그대로 반환
type Service struct {
	generator   Generator
	describer   Describer
	downloader  Downloader
	uploader    Uploader
	records     Recorder
	aspectRatio string
}

var _ chat.ImageGenerator = (*Service)(nil)

type Option func(*Service)

// WithStorage - 업로드 + 기록 활성화
func WithStorage(uploader Uploader, records Recorder) Option {
	return func(s *Service) {
		s.uploader = uploader
		s.records = records
	}
}

func WithAspectRatio(ratio string) Option {
	return func(s *Service) { s.aspectRatio = fallback.SafeAspectRatio(ratio) }
}

func NewService(generator Generator, describer Describer, downloader Downloader, opts ...Option) *Service {
	s := &Service{
		generator:   generator,
		describer:   describer,
		downloader:  downloader,
		aspectRatio: fallback.SafeAspectRatio(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateOutfitImage - 제안 문구로 코디 이미지 생성. 모델이 이미지를 주지 않으면 ("", nil)
func (s *Service) GenerateOutfitImage(ctx context.Context, sessionID, suggestion string, settings chat.Settings) (string, error) {
	return s.generate(ctx, sessionID, suggestion, settings, SourceSuggestion)
}

// GenerateFromLikedImages - 내코디 이미지들을 합쳐 새 코디 설명을 만들고 이미지 생성
func (s *Service) GenerateFromLikedImages(ctx context.Context, sessionID string, images []string, settings chat.Settings) (*chat.LikedImagesResult, error) {
	loaded, err := s.loadImages(ctx, images)
	if err != nil {
		return nil, err
	}

	merged, err := utils.MergeImages(loaded, mergeCellSize)
	if err != nil {
		return nil, &stylist.ServiceError{Message: LoadFailedMessage, Err: err}
	}

	suggestion, err := s.describer.DescribeLikedOutfits(ctx, stylist.Image{MIMEType: "image/png", Data: merged}, len(loaded), settings)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.generate(ctx, sessionID, suggestion, settings, SourceLiked)
	if err != nil {
		return nil, err
	}
	return &chat.LikedImagesResult{ImageURL: imageURL, Suggestion: suggestion}, nil
}

// ListOutfits - 세션에서 생성된 이미지 기록 (Storage 미설정 시 빈 목록)
func (s *Service) ListOutfits(sessionID string, limit int) ([]database.OutfitImage, error) {
	if s.records == nil {
		return []database.OutfitImage{}, nil
	}
	return s.records.ListOutfitImages(sessionID, limit)
}

func (s *Service) generate(ctx context.Context, sessionID, suggestion string, settings chat.Settings, source string) (string, error) {
	startTime := time.Now()
	prompt := buildPrompt(suggestion, settings)

	var refs []*genai.Part
	if settings.ProfileImage != "" {
		if data, mime, err := utils.ParseDataURL(settings.ProfileImage); err == nil {
			refs = append(refs, genai.NewPartFromBytes(data, mime))
		} else {
			log.Printf("⚠️  [OutfitImage] Ignoring invalid profile image: %v", err)
		}
	}

	log.Printf("🎨 [OutfitImage] Generating %s image for session %s (refs: %d, ratio: %s)", source, sessionID, len(refs), s.aspectRatio)
	data, err := s.generator.GenerateImage(ctx, prompt, refs, s.aspectRatio)
	if errors.Is(err, gemini.ErrNoImage) {
		metrics.GeminiRequests.WithLabelValues("image", "empty").Inc()
		log.Printf("⚠️  [OutfitImage] Model returned no image for session %s", sessionID)
		return "", nil
	}
	if err != nil {
		metrics.GeminiRequests.WithLabelValues("image", "error").Inc()
		return "", &stylist.ServiceError{Message: GenerationFailedMessage, Err: err}
	}
	metrics.GeminiRequests.WithLabelValues("image", "ok").Inc()

	imageURL := s.persist(ctx, sessionID, data, suggestion, source, settings)
	log.Printf("✅ [OutfitImage] Image ready in %.1fs", time.Since(startTime).Seconds())
	return imageURL, nil
}

// persist - WebP 변환 후 업로드. 업로드가 불가능하면 data URL
func (s *Service) persist(ctx context.Context, sessionID string, data []byte, prompt, source string, settings chat.Settings) string {
	webpData, err := utils.ConvertToWebP(data, webpQuality)
	if err != nil {
		log.Printf("⚠️  [OutfitImage] WebP conversion failed, keeping original: %v", err)
		mime, detectErr := utils.DetectImage(data)
		if detectErr != nil {
			mime = "image/png"
		}
		return utils.EncodeDataURL(data, mime)
	}

	if s.uploader == nil {
		return utils.EncodeDataURL(webpData, "image/webp")
	}

	path, publicURL, err := s.uploader.UploadImage(ctx, webpData, sessionID)
	if err != nil {
		log.Printf("❌ [OutfitImage] Upload failed, returning inline image: %v", err)
		return utils.EncodeDataURL(webpData, "image/webp")
	}

	if s.records != nil {
		_, err := s.records.InsertOutfitImage(database.OutfitImage{
			SessionID:   sessionID,
			StoragePath: path,
			PublicURL:   publicURL,
			Prompt:      prompt,
			Source:      source,
			Gender:      string(settings.Gender),
			Region:      settings.Region,
			SizeBytes:   int64(len(webpData)),
		})
		if err != nil {
			log.Printf("⚠️  [OutfitImage] Failed to record outfit image: %v", err)
		}
	}
	return publicURL
}

// loadImages - data URL은 디코딩, http(s) URL은 다운로드. 실패한 항목은 건너뜀
func (s *Service) loadImages(ctx context.Context, refs []string) ([][]byte, error) {
	results := make([][]byte, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoad)
	for i, ref := range refs {
		g.Go(func() error {
			data, err := s.loadImage(gctx, ref)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Printf("⚠️  [OutfitImage] Skipping liked image %d: %v", i, err)
				return nil
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	loaded := make([][]byte, 0, len(results))
	for _, data := range results {
		if data != nil {
			loaded = append(loaded, data)
		}
	}
	if len(loaded) == 0 {
		return nil, &stylist.ServiceError{Message: LoadFailedMessage, Err: errors.New("no liked image could be loaded")}
	}

	log.Printf("📦 [OutfitImage] Loaded %d/%d liked images", len(loaded), len(refs))
	return loaded, nil
}

func (s *Service) loadImage(ctx context.Context, ref string) ([]byte, error) {
	if utils.IsDataURL(ref) {
		data, _, err := utils.ParseDataURL(ref)
		return data, err
	}
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return nil, fmt.Errorf("unsupported image reference")
	}
	if s.downloader == nil {
		return nil, fmt.Errorf("no downloader configured")
	}
	data, err := s.downloader.DownloadImage(ctx, ref)
	if err != nil {
		return nil, err
	}
	if _, err := utils.DetectImage(data); err != nil {
		return nil, err
	}
	return data, nil
}
