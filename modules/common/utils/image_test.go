package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDataURLRoundTrip(t *testing.T) {
	data := testPNG(t, 4, 4, color.White)

	dataURL := EncodeDataURL(data, "image/png")
	assert.True(t, IsDataURL(dataURL))

	decoded, mime, err := ParseDataURL(dataURL)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, data, decoded)
}

func TestParseDataURLRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"not a data url":  "https://example.com/a.png",
		"missing base64":  "data:image/png,abcd",
		"broken base64":   "data:image/png;base64,@@@",
		"not an image":    EncodeDataURL([]byte("hello world"), "image/png"),
		"missing payload": "data:image/png;base64",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseDataURL(input)
			assert.Error(t, err)
		})
	}
}

func TestDetectImageSizeLimit(t *testing.T) {
	_, err := DetectImage(make([]byte, MaxImageBytes+1))
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = DetectImage(nil)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestMergeImagesGrid(t *testing.T) {
	images := [][]byte{
		testPNG(t, 10, 20, color.Black),
		testPNG(t, 20, 10, color.White),
		[]byte("skip me"),
		testPNG(t, 8, 8, color.Black),
	}

	merged, err := MergeImages(images, 16)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(merged))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	// 3 valid images -> 2x2 grid
	assert.Equal(t, 32, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestMergeImagesNoValidInput(t *testing.T) {
	_, err := MergeImages(nil, 16)
	assert.Error(t, err)

	_, err = MergeImages([][]byte{[]byte("x")}, 16)
	assert.Error(t, err)
}

func TestResizeImageKeepsAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for x := 0; x < 20; x++ {
		for y := 0; y < 10; y++ {
			src.Set(x, y, color.White)
		}
	}

	dst := ResizeImage(src, 10, 10)
	assert.Equal(t, image.Rect(0, 0, 10, 10), dst.Bounds())

	// 10x5 content centered vertically: rows 0-1 stay transparent
	_, _, _, a := dst.At(5, 0).RGBA()
	assert.Zero(t, a)
	r, _, _, _ := dst.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestConvertToWebP(t *testing.T) {
	webpData, err := ConvertToWebP(testPNG(t, 16, 16, color.White), 80)
	require.NoError(t, err)

	mime, err := DetectImage(webpData)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mime)

	// webp 패키지 임포트만으로 image.Decode가 WebP를 읽음
	img, format, err := image.Decode(bytes.NewReader(webpData))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 16, img.Bounds().Dx())
}
