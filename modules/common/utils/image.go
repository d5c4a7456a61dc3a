package utils

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // GIF 디코더 등록
	_ "image/jpeg" // JPEG 디코더 등록
	"image/png"
	"log"
	"math"
	"strings"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// MaxImageBytes - 업로드 이미지 최대 크기
const MaxImageBytes = 10 << 20

var (
	ErrInvalidDataURL   = errors.New("invalid image data URL")
	ErrImageTooLarge    = errors.New("image exceeds size limit")
	ErrUnsupportedImage = errors.New("unsupported image format")
)

var formatMIME = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// ParseDataURL - "data:image/png;base64,..." 형태를 바이너리로 디코딩하고 실제 포맷 검증
func ParseDataURL(dataURL string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return nil, "", ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, "", ErrInvalidDataURL
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes {
		return nil, "", ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}

	mime, err := DetectImage(data)
	if err != nil {
		return nil, "", err
	}
	return data, mime, nil
}

// EncodeDataURL - 바이너리를 data URL로 변환
func EncodeDataURL(data []byte, mime string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURL - data URL 여부
func IsDataURL(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// DetectImage - 헤더만 디코딩해서 지원 포맷인지 확인하고 MIME 반환
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrUnsupportedImage
	}
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	mime, ok := formatMIME[format]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}
	return mime, nil
}

// ConvertToWebP - PNG/JPEG/GIF/WebP 바이너리를 손실 WebP로 변환
func ConvertToWebP(data []byte, quality float32) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	log.Printf("🔄 %s converted to WebP: %d bytes → %d bytes", format, len(data), buf.Len())
	return buf.Bytes(), nil
}

// MergeImages - 여러 코디 이미지를 정사각 셀 Grid 한 장으로 병합 (PNG)
// 디코딩 실패한 이미지는 건너뜀
func MergeImages(images [][]byte, cellSize int) ([]byte, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to merge")
	}

	decoded := make([]image.Image, 0, len(images))
	for i, data := range images {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			log.Printf("⚠️  Failed to decode image %d: %v", i, err)
			continue
		}
		decoded = append(decoded, img)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("no valid images to merge")
	}

	cols := int(math.Ceil(math.Sqrt(float64(len(decoded)))))
	rows := int(math.Ceil(float64(len(decoded)) / float64(cols)))

	merged := image.NewRGBA(image.Rect(0, 0, cols*cellSize, rows*cellSize))
	for idx, img := range decoded {
		cell := ResizeImage(img, cellSize, cellSize)
		x := (idx % cols) * cellSize
		y := (idx / cols) * cellSize
		draw.Draw(merged, image.Rect(x, y, x+cellSize, y+cellSize), cell, image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, merged); err != nil {
		return nil, fmt.Errorf("failed to encode merged image: %w", err)
	}

	log.Printf("✅ Merged %d images into %dx%d grid (%d bytes)", len(decoded), rows, cols, buf.Len())
	return buf.Bytes(), nil
}

// ResizeImage - 비율 유지하며 target 안에 맞춤 (중앙 정렬, nearest neighbor)
func ResizeImage(src image.Image, targetWidth, targetHeight int) image.Image {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	}

	scale := math.Min(float64(targetWidth)/float64(b.Dx()), float64(targetHeight)/float64(b.Dy()))
	newWidth := int(float64(b.Dx()) * scale)
	newHeight := int(float64(b.Dy()) * scale)
	xOffset := (targetWidth - newWidth) / 2
	yOffset := (targetHeight - newHeight) / 2

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	for y := 0; y < newHeight; y++ {
		for x := 0; x < newWidth; x++ {
			srcX := b.Min.X + int(float64(x)/scale)
			srcY := b.Min.Y + int(float64(y)/scale)
			dst.Set(x+xOffset, y+yOffset, src.At(srcX, srcY))
		}
	}
	return dst
}
