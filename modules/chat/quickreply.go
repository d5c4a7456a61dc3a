package chat

import (
	"slices"
	"strings"
)

const (
	// DefaultErrorText - 에러 메시지가 비어있을 때
	DefaultErrorText = "알 수 없는 오류가 발생했습니다."
	// ImageNotGeneratedText - 이미지 생성 결과가 비었을 때
	ImageNotGeneratedText = "이미지를 생성하지 못했습니다."
	// ImageProcessFailedText - 첨부 이미지 디코딩 실패
	ImageProcessFailedText = "이미지를 처리하는 데 오류가 발생했습니다."
	// HistoryAddFailedText - 내코디 추가 실패
	HistoryAddFailedText = "이미지를 내코디에 추가하는 데 실패했습니다."
	// SettingsUpdatedText - 지역 외 설정만 바뀌었을 때의 고정 응답
	SettingsUpdatedText = "설정이 업데이트되었어요! 앞으로 추천에 반영할게요. 😉"
	// ShowDifferentStyleText - 싫어요 후 자동으로 보내는 사용자 메시지
	ShowDifferentStyleText = "다른 스타일 보여줘"
	// PlaceholderDots - 날씨 턴 초기 placeholder
	PlaceholderDots = "..."
)

var (
	// ImageRequestPhrases - PendingSuggestion이 있을 때 이미지 생성으로 분기하는 문구
	ImageRequestPhrases = []string{"코디 이미지 보여줘", "이 코디 이미지로 보여줘", "제안된 코디 이미지로 보여줘"}

	WeatherQuickReplies      = []string{"코디 이미지 보여줘", "활동량 많은 날엔?", "저녁 약속엔 뭐 입지?"}
	WeatherRetryQuickReplies = []string{"날씨 알려줘"}
	TextQuickReplies         = []string{"이 코디 이미지로 보여줘", "더 캐주얼하게", "조금 더 격식있게"}
	ImageQuickReplies        = []string{"제안된 코디 이미지로 보여줘", "좀 더 단순하게", "계절감 더 살려줘"}
)

// IsImageRequest - 이미지 요청 문구와 정확히 일치하는지
func IsImageRequest(text string) bool {
	return slices.Contains(ImageRequestPhrases, text)
}

// ErrorText - 사용자에게 보여줄 에러 문자열
func ErrorText(err error) string {
	if err == nil {
		return DefaultErrorText
	}
	if text := strings.TrimSpace(err.Error()); text != "" {
		return text
	}
	return DefaultErrorText
}
