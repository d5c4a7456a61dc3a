package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeatherReportMessageByTone(t *testing.T) {
	w := &WeatherRecommendation{Summary: "흐림", MinTemp: 3, MaxTemp: 9}

	assert.Equal(t, "부산 날씨. 흐림. 최저 3°C, 최고 9°C. 됐지?", WeatherReportMessage(ToneCritical, "부산", w))
	assert.Equal(t, "오늘 부산 날씨는 말이야~ 흐림에 최저 3°C, 최고 9°C까지 오르락내리락 할 예정! ㅋㅋ", WeatherReportMessage(ToneWitty, "부산", w))
	assert.Equal(t, "부산의 오늘 날씨는 흐림 (최저 3°C / 최고 9°C) 예요.", WeatherReportMessage(ToneFriendly, "부산", w))
	assert.Equal(t, WeatherReportMessage(ToneFriendly, "부산", w), WeatherReportMessage(ToneUnset, "부산", w))
}

func TestWeatherProgressMessages(t *testing.T) {
	for _, tone := range []Tone{ToneFriendly, ToneWitty, ToneCritical} {
		steps := WeatherProgressMessages(tone, "대구")
		if assert.Len(t, steps, 3, tone) {
			assert.Equal(t, 700*time.Millisecond, steps[0].Delay)
			assert.Equal(t, time.Second, steps[1].Delay)
			assert.Zero(t, steps[2].Delay)
			assert.Contains(t, steps[0].Text, "대구")
		}
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "남성", GenderLabel(GenderMale))
	assert.Equal(t, "여성", GenderLabel(GenderFemale))
	assert.Equal(t, "상관없음", GenderLabel(GenderUnisex))
	assert.Equal(t, "까칠한 친구", ToneLabel(ToneCritical))
	assert.Equal(t, "쾌활한 친구", ToneLabel(ToneWitty))
	assert.Equal(t, "친절한 튜터", ToneLabel(ToneFriendly))
}

func TestIsImageRequestRequiresExactPhrase(t *testing.T) {
	assert.True(t, IsImageRequest("코디 이미지 보여줘"))
	assert.True(t, IsImageRequest("제안된 코디 이미지로 보여줘"))
	assert.False(t, IsImageRequest("코디 이미지 보여줘!"))
	assert.False(t, IsImageRequest(""))
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, DefaultErrorText, ErrorText(nil))
	assert.Equal(t, DefaultErrorText, ErrorText(errors.New("  ")))
	assert.Equal(t, "boom", ErrorText(errors.New("boom")))
}

func TestSettingsEqualIgnoresColorOrder(t *testing.T) {
	a := Settings{Region: "서울", PreferredColors: []string{"블랙", "화이트"}}
	b := Settings{Region: "서울", PreferredColors: []string{"화이트", "블랙"}}
	assert.True(t, a.Equal(b))

	b.Height = "180"
	assert.False(t, a.Equal(b))
	assert.False(t, Settings{Region: "서울", Gender: GenderMale}.Complete())
}

func TestToneTable(t *testing.T) {
	type row struct {
		imagePlaceholder string
		imageSuccess     string
		imageError       string
		photoPlaceholder string
		textPlaceholder  string
		photoError       string
		textError        string
		weatherError     string
		genderChanged    string
	}
	friendly := row{
		imagePlaceholder: "제안된 코디 이미지를 만들고 있어요... 🎨",
		imageSuccess:     "짠! 요청하신 코디 이미지예요. ✨",
		imageError:       "이미지 생성 중 오류가 발생했어요: 실패",
		photoPlaceholder: "사진을 분석하고 있어요... 📸",
		textPlaceholder:  "코디를 추천하고 있어요... ✍️",
		photoError:       "이미지 처리 중 오류가 발생했어요: 실패",
		textError:        "오류가 발생했어요: 실패",
		weatherError:     "날씨 확인 중 오류가 발생했어요: 실패",
		genderChanged:    "성별이 '여성'(으)로 변경되었어요! 앞으로 추천에 반영할게요.",
	}
	cases := map[Tone]row{
		ToneUnset:    friendly,
		ToneFriendly: friendly,
		ToneWitty: {
			imagePlaceholder: "예술혼 불태우는 중... 잠시만. 🎨",
			imageSuccess:     "훗, 이 몸이 좀 감각있지. 😎",
			imageError:       "아놔, 내 예술혼이 거부 반응을... 🤯 에러: 실패",
			photoPlaceholder: "어디보자... 패션 감별 들어갑니다~ 🕵️",
			textPlaceholder:  "흐음... 기가 막힌 추천을 위한 빌드업 중... 🤔",
			photoError:       "이런, 사진이 너무 눈부셨나... 에러! ✨ (실패)",
			textError:        "뇌세포 과부하! 추천 엔진 터짐... 🤯 (실패)",
			weatherError:     "날씨의 신이 노하셨나... 에러...😱 (실패)",
			genderChanged:    "오, '여성'(으)로 변신! ✨ 알겠다고~ 맞춰서 추천해주지!",
		},
		ToneCritical: {
			imagePlaceholder: "이미지 만드는 중. 재촉 마.",
			imageSuccess:     "자, 보던가.",
			imageError:       "이미지 만들다 에러남. 알아서 해. (실패)",
			photoPlaceholder: "사진 보는 중. 평가해주지.",
			textPlaceholder:  "...생각 중.",
			photoError:       "사진 보다 에러남. (실패)",
			textError:        "추천하다 에러남. (실패)",
			weatherError:     "날씨 보다가 에러남. (실패)",
			genderChanged:    "'여성'(으)로 변경. 알았으니까 이제 말 걸어.",
		},
	}

	for tone, want := range cases {
		t.Run(string(tone), func(t *testing.T) {
			assert.Equal(t, want.imagePlaceholder, ImageGenerationPlaceholderMessage(tone))
			assert.Equal(t, want.imageSuccess, ImageGenerationSuccessMessage(tone))
			assert.Equal(t, want.imageError, ImageGenerationErrorMessage(tone, "실패"))
			assert.Equal(t, want.photoPlaceholder, AnalysisPlaceholderMessage(true, tone))
			assert.Equal(t, want.textPlaceholder, AnalysisPlaceholderMessage(false, tone))
			assert.Equal(t, want.photoError, AnalysisErrorMessage(true, tone, "실패"))
			assert.Equal(t, want.textError, AnalysisErrorMessage(false, tone, "실패"))
			assert.Equal(t, want.weatherError, WeatherErrorMessage(tone, "실패"))
			assert.Equal(t, want.genderChanged, GenderChangedMessage(tone, "여성"))
		})
	}
}
