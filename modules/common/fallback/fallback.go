package fallback

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxQuickReplies - 한 번에 노출하는 빠른 답장 수
const MaxQuickReplies = 3

// maxQuickReplyRunes - 버튼에 들어갈 수 있는 최대 길이
const maxQuickReplyRunes = 20

// SafeString returns a trimmed string or the provided fallback.
func SafeString(value interface{}, fallback string) string {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s != "" {
			return s
		}
	}
	return fallback
}

// SafeInt converts common number shapes into int with a fallback.
// "175cm" 처럼 숫자 뒤에 단위가 붙은 문자열도 허용
func SafeInt(value interface{}, fallback int) int {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return int(v)
		}
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil && n > 0 {
			return n
		}
	case string:
		s := strings.TrimSpace(v)
		end := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if n, err := strconv.Atoi(s[:end]); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// SafeAspectRatio provides a sane default aspect ratio for outfit images.
func SafeAspectRatio(value interface{}) string {
	return SafeString(value, "3:4")
}

// QuickReplies - 모델이 제안한 빠른 답장 정리
// pinned가 있으면 항상 첫 번째. 공백/중복/너무 긴 항목은 버리고 부족하면 defaults로 채움
func QuickReplies(raw []string, defaults []string, pinned string) []string {
	out := make([]string, 0, MaxQuickReplies)
	seen := map[string]bool{}

	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] || utf8.RuneCountInString(s) > maxQuickReplyRunes || len(out) >= MaxQuickReplies {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	add(pinned)
	for _, s := range raw {
		add(s)
	}
	for _, s := range defaults {
		add(s)
	}
	return out
}
