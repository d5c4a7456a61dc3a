package outfitimage

import (
	"fmt"
	"strings"

	"wearly-server/modules/chat"
	"wearly-server/modules/common/fallback"
)

func genderWord(g chat.Gender) string {
	switch g {
	case chat.GenderMale:
		return "male"
	case chat.GenderFemale:
		return "female"
	default:
		return "unisex"
	}
}

// buildPrompt - 코디 이미지 생성 프롬프트 (영문)
func buildPrompt(suggestion string, s chat.Settings) string {
	var body strings.Builder
	if h := fallback.SafeInt(s.Height, 0); h > 0 {
		fmt.Fprintf(&body, "- Body height: %dcm\n", h)
	}
	if w := fallback.SafeInt(s.Weight, 0); w > 0 {
		fmt.Fprintf(&body, "- Body weight: %dkg\n", w)
	}

	reference := "- Clothing laid out flat or on a mannequin"
	if s.ProfileImage != "" {
		reference = "- The attached photo is the wearer: show this person wearing the outfit, keep face and body shape consistent"
	}

	return fmt.Sprintf(`A clean, professional fashion outfit photo on white background. Style: modern Korean fashion, %s clothing.

Outfit description: %s

Requirements:
- Clean white or minimal background
- Professional fashion photography style
- Modern and trendy Korean fashion aesthetic
%s
- Well-lit, high quality
- Focus on the outfit items mentioned
%s`, genderWord(s.Gender), suggestion, reference, body.String())
}
