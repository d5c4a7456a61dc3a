package outfitimage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"wearly-server/modules/chat"
	"wearly-server/modules/common/database"
	"wearly-server/modules/common/gemini"
	"wearly-server/modules/common/utils"
	"wearly-server/modules/stylist"
)

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeGenerator struct {
	mu      sync.Mutex
	data    []byte
	err     error
	prompts []string
	refs    [][]*genai.Part
	ratios  []string
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, prompt string, refs []*genai.Part, aspectRatio string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.refs = append(f.refs, refs)
	f.ratios = append(f.ratios, aspectRatio)
	return f.data, f.err
}

type fakeDescriber struct {
	text   string
	err    error
	counts []int
	merged []stylist.Image
}

func (f *fakeDescriber) DescribeLikedOutfits(ctx context.Context, merged stylist.Image, count int, settings chat.Settings) (string, error) {
	f.counts = append(f.counts, count)
	f.merged = append(f.merged, merged)
	return f.text, f.err
}

type fakeDownloader struct {
	mu    sync.Mutex
	files map[string][]byte
	urls  []string
}

func (f *fakeDownloader) DownloadImage(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	data, ok := f.files[url]
	if !ok {
		return nil, errors.New("404")
	}
	return data, nil
}

type fakeStorage struct {
	uploadErr error
	uploads   [][]byte
	records   []database.OutfitImage
}

func (f *fakeStorage) UploadImage(ctx context.Context, webpData []byte, sessionID string) (string, string, error) {
	if f.uploadErr != nil {
		return "", "", f.uploadErr
	}
	f.uploads = append(f.uploads, webpData)
	path := "outfits/session-" + sessionID + "/outfit.webp"
	return path, "https://cdn.example.com/" + path, nil
}

func (f *fakeStorage) InsertOutfitImage(record database.OutfitImage) (*database.OutfitImage, error) {
	f.records = append(f.records, record)
	return &record, nil
}

func (f *fakeStorage) ListOutfitImages(sessionID string, limit int) ([]database.OutfitImage, error) {
	return f.records, nil
}

var settings = chat.Settings{Region: "서울", Gender: chat.GenderFemale, Tone: chat.ToneFriendly, Height: "162cm"}

func TestGenerateOutfitImageInlineWithoutStorage(t *testing.T) {
	gen := &fakeGenerator{data: pngBytes(t, color.White)}
	svc := NewService(gen, &fakeDescriber{}, nil)

	url, err := svc.GenerateOutfitImage(context.Background(), "s1", "베이지 트렌치코트", settings)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/webp;base64,"))

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "female clothing")
	assert.Contains(t, gen.prompts[0], "Outfit description: 베이지 트렌치코트")
	assert.Contains(t, gen.prompts[0], "Body height: 162cm")
	assert.Contains(t, gen.prompts[0], "mannequin")
	assert.Empty(t, gen.refs[0])
	assert.Equal(t, "3:4", gen.ratios[0])
}

func TestGenerateOutfitImageUploadsAndRecords(t *testing.T) {
	gen := &fakeGenerator{data: pngBytes(t, color.Black)}
	store := &fakeStorage{}
	svc := NewService(gen, &fakeDescriber{}, nil, WithStorage(store, store), WithAspectRatio("1:1"))

	url, err := svc.GenerateOutfitImage(context.Background(), "s1", "블랙 슬랙스", settings)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/outfits/session-s1/outfit.webp", url)

	require.Len(t, store.uploads, 1)
	upload := store.uploads[0]
	require.Greater(t, len(upload), 12)
	assert.Equal(t, "RIFF", string(upload[:4]))
	assert.Equal(t, "WEBP", string(upload[8:12]))

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, "s1", rec.SessionID)
	assert.Equal(t, "블랙 슬랙스", rec.Prompt)
	assert.Equal(t, SourceSuggestion, rec.Source)
	assert.Equal(t, "female", rec.Gender)
	assert.Equal(t, int64(len(store.uploads[0])), rec.SizeBytes)
	assert.Equal(t, "1:1", gen.ratios[0])

	rows, err := svc.ListOutfits("s1", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestGenerateOutfitImageUploadFailureFallsBackInline(t *testing.T) {
	store := &fakeStorage{uploadErr: errors.New("503")}
	svc := NewService(&fakeGenerator{data: pngBytes(t, color.White)}, &fakeDescriber{}, nil, WithStorage(store, store))

	url, err := svc.GenerateOutfitImage(context.Background(), "s1", "p", settings)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/webp;base64,"))
	assert.Empty(t, store.records)
}

func TestGenerateOutfitImageSoftAndHardFailures(t *testing.T) {
	svc := NewService(&fakeGenerator{err: gemini.ErrNoImage}, &fakeDescriber{}, nil)
	url, err := svc.GenerateOutfitImage(context.Background(), "s1", "p", settings)
	require.NoError(t, err)
	assert.Empty(t, url)

	svc = NewService(&fakeGenerator{err: errors.New("all keys exhausted")}, &fakeDescriber{}, nil)
	_, err = svc.GenerateOutfitImage(context.Background(), "s1", "p", settings)
	require.Error(t, err)
	assert.Equal(t, GenerationFailedMessage, err.Error())
	assert.Equal(t, "이미지 생성 중 오류가 발생했어요: 이미지 생성에 실패했습니다.",
		chat.ImageGenerationErrorMessage(chat.ToneFriendly, chat.ErrorText(err)))
}

func TestGenerateOutfitImageUsesProfileReference(t *testing.T) {
	gen := &fakeGenerator{data: pngBytes(t, color.White)}
	svc := NewService(gen, &fakeDescriber{}, nil)

	withProfile := settings
	withProfile.ProfileImage = utils.EncodeDataURL(pngBytes(t, color.Black), "image/png")
	_, err := svc.GenerateOutfitImage(context.Background(), "s1", "p", withProfile)
	require.NoError(t, err)

	require.Len(t, gen.refs[0], 1)
	require.NotNil(t, gen.refs[0][0].InlineData)
	assert.Equal(t, "image/png", gen.refs[0][0].InlineData.MIMEType)
	assert.Contains(t, gen.prompts[0], "The attached photo is the wearer")
}

func TestGenerateFromLikedImages(t *testing.T) {
	gen := &fakeGenerator{data: pngBytes(t, color.White)}
	desc := &fakeDescriber{text: "네이비 블레이저 + 화이트 팬츠"}
	dl := &fakeDownloader{files: map[string][]byte{
		"https://cdn.example.com/a.webp": pngBytes(t, color.Black),
	}}
	svc := NewService(gen, desc, dl)

	res, err := svc.GenerateFromLikedImages(context.Background(), "s1", []string{
		utils.EncodeDataURL(pngBytes(t, color.White), "image/png"),
		"https://cdn.example.com/a.webp",
		"https://cdn.example.com/missing.webp",
		"ftp://nope",
	}, settings)
	require.NoError(t, err)

	assert.Equal(t, "네이비 블레이저 + 화이트 팬츠", res.Suggestion)
	assert.True(t, strings.HasPrefix(res.ImageURL, "data:image/webp;base64,"))
	assert.Equal(t, []int{2}, desc.counts)
	assert.Equal(t, "image/png", desc.merged[0].MIMEType)
	assert.ElementsMatch(t, []string{"https://cdn.example.com/a.webp", "https://cdn.example.com/missing.webp"}, dl.urls)
	assert.Contains(t, gen.prompts[0], "Outfit description: 네이비 블레이저 + 화이트 팬츠")
}

func TestGenerateFromLikedImagesFailures(t *testing.T) {
	svc := NewService(&fakeGenerator{}, &fakeDescriber{}, &fakeDownloader{})
	_, err := svc.GenerateFromLikedImages(context.Background(), "s1", []string{"https://cdn.example.com/x.webp"}, settings)
	require.Error(t, err)
	assert.Equal(t, LoadFailedMessage, err.Error())

	desc := &fakeDescriber{err: &stylist.ServiceError{Message: stylist.ImageAnalysisFailedMessage}}
	svc = NewService(&fakeGenerator{}, desc, nil)
	_, err = svc.GenerateFromLikedImages(context.Background(), "s1", []string{utils.EncodeDataURL(pngBytes(t, color.White), "image/png")}, settings)
	assert.Equal(t, stylist.ImageAnalysisFailedMessage, err.Error())
}

func TestListOutfitsWithoutStorage(t *testing.T) {
	svc := NewService(&fakeGenerator{}, &fakeDescriber{}, nil)
	rows, err := svc.ListOutfits("s1", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
