package fallback

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeString(t *testing.T) {
	assert.Equal(t, "hi", SafeString("  hi ", "x"))
	assert.Equal(t, "x", SafeString("   ", "x"))
	assert.Equal(t, "x", SafeString(42, "x"))
}

func TestSafeInt(t *testing.T) {
	assert.Equal(t, 175, SafeInt("175", 0))
	assert.Equal(t, 175, SafeInt(" 175cm", 0))
	assert.Equal(t, 68, SafeInt(json.Number("68"), 0))
	assert.Equal(t, 3, SafeInt(3.9, 0))
	assert.Equal(t, 0, SafeInt("cm", 0))
	assert.Equal(t, 7, SafeInt(-1, 7))
}

func TestSafeAspectRatio(t *testing.T) {
	assert.Equal(t, "3:4", SafeAspectRatio(nil))
	assert.Equal(t, "1:1", SafeAspectRatio("1:1"))
}

func TestQuickReplies(t *testing.T) {
	defaults := []string{"이 코디 이미지로 보여줘", "더 캐주얼하게", "조금 더 격식있게"}

	got := QuickReplies([]string{" 우산 챙길까? ", "이 코디 이미지로 보여줘", ""}, defaults, "이 코디 이미지로 보여줘")
	assert.Equal(t, []string{"이 코디 이미지로 보여줘", "우산 챙길까?", "더 캐주얼하게"}, got)

	assert.Equal(t, defaults, QuickReplies(nil, defaults, ""))

	long := "이건 버튼에 넣기에는 너무너무너무 긴 빠른 답장 문구입니다"
	assert.Equal(t, []string{"a", "b", "c"}, QuickReplies([]string{long, "a", "b", "c", "d"}, nil, ""))
}
