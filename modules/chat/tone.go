package chat

import (
	"fmt"
	"time"
)

// 말투별 표시 문구. 알 수 없는 말투는 friendly로 처리

// ProgressStep - 날씨 턴 진행 중 placeholder에 표시되는 문구와 유지 시간
type ProgressStep struct {
	Text  string
	Delay time.Duration
}

func WeatherReportMessage(tone Tone, region string, w *WeatherRecommendation) string {
	switch tone {
	case ToneCritical:
		return fmt.Sprintf("%s 날씨. %s. 최저 %d°C, 최고 %d°C. 됐지?", region, w.Summary, w.MinTemp, w.MaxTemp)
	case ToneWitty:
		return fmt.Sprintf("오늘 %s 날씨는 말이야~ %s에 최저 %d°C, 최고 %d°C까지 오르락내리락 할 예정! ㅋㅋ", region, w.Summary, w.MinTemp, w.MaxTemp)
	default:
		return fmt.Sprintf("%s의 오늘 날씨는 %s (최저 %d°C / 최고 %d°C) 예요.", region, w.Summary, w.MinTemp, w.MaxTemp)
	}
}

func GenderChangedMessage(tone Tone, genderText string) string {
	switch tone {
	case ToneCritical:
		return fmt.Sprintf("'%s'(으)로 변경. 알았으니까 이제 말 걸어.", genderText)
	case ToneWitty:
		return fmt.Sprintf("오, '%s'(으)로 변신! ✨ 알겠다고~ 맞춰서 추천해주지!", genderText)
	default:
		return fmt.Sprintf("성별이 '%s'(으)로 변경되었어요! 앞으로 추천에 반영할게요.", genderText)
	}
}

func WeatherErrorMessage(tone Tone, errText string) string {
	switch tone {
	case ToneCritical:
		return fmt.Sprintf("날씨 보다가 에러남. (%s)", errText)
	case ToneWitty:
		return fmt.Sprintf("날씨의 신이 노하셨나... 에러...😱 (%s)", errText)
	default:
		return fmt.Sprintf("날씨 확인 중 오류가 발생했어요: %s", errText)
	}
}

func ImageGenerationPlaceholderMessage(tone Tone) string {
	switch tone {
	case ToneCritical:
		return "이미지 만드는 중. 재촉 마."
	case ToneWitty:
		return "예술혼 불태우는 중... 잠시만. 🎨"
	default:
		return "제안된 코디 이미지를 만들고 있어요... 🎨"
	}
}

func ImageGenerationSuccessMessage(tone Tone) string {
	switch tone {
	case ToneCritical:
		return "자, 보던가."
	case ToneWitty:
		return "훗, 이 몸이 좀 감각있지. 😎"
	default:
		return "짠! 요청하신 코디 이미지예요. ✨"
	}
}

func ImageGenerationErrorMessage(tone Tone, errText string) string {
	switch tone {
	case ToneCritical:
		return fmt.Sprintf("이미지 만들다 에러남. 알아서 해. (%s)", errText)
	case ToneWitty:
		return fmt.Sprintf("아놔, 내 예술혼이 거부 반응을... 🤯 에러: %s", errText)
	default:
		return fmt.Sprintf("이미지 생성 중 오류가 발생했어요: %s", errText)
	}
}

func AnalysisPlaceholderMessage(withImage bool, tone Tone) string {
	if withImage {
		switch tone {
		case ToneCritical:
			return "사진 보는 중. 평가해주지."
		case ToneWitty:
			return "어디보자... 패션 감별 들어갑니다~ 🕵️"
		default:
			return "사진을 분석하고 있어요... 📸"
		}
	}
	switch tone {
	case ToneCritical:
		return "...생각 중."
	case ToneWitty:
		return "흐음... 기가 막힌 추천을 위한 빌드업 중... 🤔"
	default:
		return "코디를 추천하고 있어요... ✍️"
	}
}

func AnalysisErrorMessage(withImage bool, tone Tone, errText string) string {
	if withImage {
		switch tone {
		case ToneCritical:
			return fmt.Sprintf("사진 보다 에러남. (%s)", errText)
		case ToneWitty:
			return fmt.Sprintf("이런, 사진이 너무 눈부셨나... 에러! ✨ (%s)", errText)
		default:
			return fmt.Sprintf("이미지 처리 중 오류가 발생했어요: %s", errText)
		}
	}
	switch tone {
	case ToneCritical:
		return fmt.Sprintf("추천하다 에러남. (%s)", errText)
	case ToneWitty:
		return fmt.Sprintf("뇌세포 과부하! 추천 엔진 터짐... 🤯 (%s)", errText)
	default:
		return fmt.Sprintf("오류가 발생했어요: %s", errText)
	}
}

func WeatherProgressMessages(tone Tone, region string) []ProgressStep {
	switch tone {
	case ToneCritical:
		return []ProgressStep{
			{Text: fmt.Sprintf("📍 %s이라... 알았어.", region), Delay: 700 * time.Millisecond},
			{Text: "🌦️ 날씨 정보? 가져오면 될 거 아냐.", Delay: 1000 * time.Millisecond},
			{Text: "🤔 대충 보고 있으니 기다려."},
		}
	case ToneWitty:
		return []ProgressStep{
			{Text: fmt.Sprintf("📍 %s(으)로 순간이동! 슝~", region), Delay: 700 * time.Millisecond},
			{Text: "🌦️ 하늘에다 물어보는 중... \"오늘 날씨 뭐냐!\"", Delay: 1000 * time.Millisecond},
			{Text: "🤔 내 패션 AI가 열일하는 중이니 잠시만!"},
		}
	default:
		return []ProgressStep{
			{Text: fmt.Sprintf("📍 %s 지역에 접속하고 있어요.", region), Delay: 700 * time.Millisecond},
			{Text: "🌦️ 오늘의 날씨 정보를 가져오는 중...", Delay: 1000 * time.Millisecond},
			{Text: "🤔 날씨를 분석해 코디를 짜고 있어요..."},
		}
	}
}

// GenderLabel - 설정 요약용 성별 표기
func GenderLabel(g Gender) string {
	switch g {
	case GenderMale:
		return "남성"
	case GenderFemale:
		return "여성"
	default:
		return "상관없음"
	}
}

// ToneLabel - 설정 요약용 말투 표기
func ToneLabel(t Tone) string {
	switch t {
	case ToneCritical:
		return "까칠한 친구"
	case ToneWitty:
		return "쾌활한 친구"
	default:
		return "친절한 튜터"
	}
}
