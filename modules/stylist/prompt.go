package stylist

import (
	"fmt"
	"strings"

	generativeai "github.com/google/generative-ai-go/genai"

	"wearly-server/modules/chat"
	"wearly-server/modules/common/fallback"
	"wearly-server/modules/weather"
)

func toneInstruction(tone chat.Tone) string {
	switch tone {
	case chat.ToneCritical:
		return `말투는 까칠하고 퉁명스럽게. 짧고 직설적으로 말해. 예: "그냥 이거 입어.", "날씨? 추워."`
	case chat.ToneWitty:
		return `말투는 쾌활하고 재치있게. 이모지를 적절히 사용하고 유머러스하게. 예: "오케이~ 내 감각을 믿어봐! ✨", "찌리릿... 추천 들어갑니다! ⚡"`
	default:
		return `말투는 친절하고 따뜻하게. 자세히 설명해주고 이모지를 적절히 사용. 예: "오늘 날씨를 고려하면 이런 옷차림이 좋을 것 같아요! 😊"`
	}
}

func genderText(g chat.Gender) string {
	switch g {
	case chat.GenderMale:
		return "남성"
	case chat.GenderFemale:
		return "여성"
	default:
		return "남녀 공용"
	}
}

// profileLines - 사용자 정보 블록 (지역, 성별, 날씨, 선호색, 체형)
func profileLines(s chat.Settings, f *weather.Forecast) string {
	var sb strings.Builder
	sb.WriteString("사용자 정보:\n")
	fmt.Fprintf(&sb, "- 지역: %s\n", s.Region)
	fmt.Fprintf(&sb, "- 성별: %s\n", genderText(s.Gender))
	if f != nil {
		fmt.Fprintf(&sb, "- 현재 날씨: %s, %d°C (최저 %d°C / 최고 %d°C)\n", f.Summary, f.Temp, f.MinTemp, f.MaxTemp)
	}
	if len(s.PreferredColors) > 0 {
		fmt.Fprintf(&sb, "- 선호 색상: %s\n", strings.Join(s.PreferredColors, ", "))
	}
	if h := fallback.SafeInt(s.Height, 0); h > 0 {
		fmt.Fprintf(&sb, "- 키: %dcm\n", h)
	}
	if w := fallback.SafeInt(s.Weight, 0); w > 0 {
		fmt.Fprintf(&sb, "- 몸무게: %dkg\n", w)
	}
	return sb.String()
}

func weatherPrompt(s chat.Settings, f *weather.Forecast) string {
	return fmt.Sprintf(`당신은 패션 코디네이터입니다. 다음 날씨 정보를 바탕으로 %s을 위한 옷차림을 추천해주세요.

지역: %s
날씨: %s
현재 기온: %d°C
최저/최고: %d°C / %d°C
%s
다음 스타일로 답변해주세요:
%s

구체적인 아이템들을 언급하면서 2-3문장으로 추천해주세요. 날씨와 기온을 고려한 실용적인 조언을 해주세요.`,
		genderText(s.Gender), s.Region, f.Summary, f.Temp, f.MinTemp, f.MaxTemp,
		preferenceLines(s), toneInstruction(s.Tone))
}

// preferenceLines - 날씨 프롬프트용 선호색/체형 (없으면 빈 문자열)
func preferenceLines(s chat.Settings) string {
	var sb strings.Builder
	if len(s.PreferredColors) > 0 {
		fmt.Fprintf(&sb, "선호 색상: %s\n", strings.Join(s.PreferredColors, ", "))
	}
	if h := fallback.SafeInt(s.Height, 0); h > 0 {
		fmt.Fprintf(&sb, "키: %dcm\n", h)
	}
	if w := fallback.SafeInt(s.Weight, 0); w > 0 {
		fmt.Fprintf(&sb, "몸무게: %dkg\n", w)
	}
	return sb.String()
}

func textPrompt(text string, s chat.Settings, f *weather.Forecast) string {
	return fmt.Sprintf(`당신은 패션 코디네이터입니다. 사용자의 질문에 답변해주세요.

%s
사용자 질문: %s

다음 스타일로 답변해주세요:
%s

구체적인 옷 아이템과 조합을 언급하면서 답변해주세요.
%s`, profileLines(s, f), text, toneInstruction(s.Tone), quickReplyInstruction)
}

func analysisPrompt(text string, s chat.Settings) string {
	extra := ""
	if text != "" {
		extra = "\n\n추가 질문: " + text
	}
	return fmt.Sprintf(`당신은 패션 전문가입니다. 이 사진을 분석하고 평가해주세요.

다음 스타일로 답변해주세요:
%s

사진 속 옷차림에 대해 2-3문장으로 분석하고 간단한 평가를 해주세요.%s`, toneInstruction(s.Tone), extra)
}

func improvementPrompt(analysis string, s chat.Settings, f *weather.Forecast) string {
	return fmt.Sprintf(`당신은 패션 코디네이터입니다. 앞서 분석한 옷차림을 개선하거나 대안을 제시해주세요.

%s
다음 스타일로 답변해주세요:
%s

이전 분석: %s

개선 방안이나 대안 코디를 구체적인 아이템 언급과 함께 2-3문장으로 제안해주세요.
%s`, profileLines(s, f), toneInstruction(s.Tone), analysis, quickReplyInstruction)
}

func alternativePrompt(disliked string, s chat.Settings, f *weather.Forecast) string {
	return fmt.Sprintf(`당신은 패션 코디네이터입니다. 사용자가 아래 코디를 마음에 들어하지 않았습니다.

싫어한 코디: %s

%s
싫어한 코디와 분위기나 핵심 아이템이 확실히 다른 새로운 코디를 구체적인 아이템 언급과 함께 2-3문장으로 제안해주세요.

다음 스타일로 답변해주세요:
%s
%s`, disliked, profileLines(s, f), toneInstruction(s.Tone), quickReplyInstruction)
}

func likedOutfitsPrompt(count int, s chat.Settings) string {
	return fmt.Sprintf(`당신은 패션 코디네이터입니다. 이미지는 사용자가 좋아요를 누른 코디 %d개를 격자로 합친 것입니다.

%s
공통된 스타일, 색감, 핵심 아이템을 파악해서 이들을 조합한 새로운 코디 하나를 제안해주세요.
이미지 생성에 그대로 쓸 수 있도록 상의, 하의, 아우터, 신발, 액세서리를 구체적으로 2-3문장으로 설명해주세요.

다음 스타일로 답변해주세요:
%s`, count, profileLines(s, nil), toneInstruction(s.Tone))
}

const quickReplyInstruction = `
응답은 JSON으로 작성하세요. 본문은 "text"에, 사용자가 다음에 누를 만한 짧은 후속 질문 2-3개(각 15자 이내)는 "quickReplies"에 넣으세요.`

// replySchema - {"text": string, "quickReplies": [string]}
var replySchema = &generativeai.Schema{
	Type: generativeai.TypeObject,
	Properties: map[string]*generativeai.Schema{
		"text": {
			Type:        generativeai.TypeString,
			Description: "Reply shown to the user",
		},
		"quickReplies": {
			Type:        generativeai.TypeArray,
			Items:       &generativeai.Schema{Type: generativeai.TypeString},
			Description: "Short follow-up questions the user may tap next",
		},
	},
	Required: []string{"text"},
}
