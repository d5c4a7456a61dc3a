package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"wearly-server/modules/common/utils"
)

// SuggestionDelay - 사진 분석 결과 후 제안 메시지까지의 간격
const SuggestionDelay = 500 * time.Millisecond

// SleepFunc - 진행 문구/제안 메시지 지연. ctx 취소 시 에러
type SleepFunc func(ctx context.Context, d time.Duration) error

// Controller - 세션 하나의 턴 처리기
// 턴은 turnMu로 직렬화되고, 상태 읽기(Snapshot)는 턴을 기다리지 않음
type Controller struct {
	sessionID   string
	recommender Recommender
	images      ImageGenerator
	publisher   Publisher
	sleep       SleepFunc

	turnMu sync.Mutex
	st     *store
}

type Option func(*Controller)

func WithPublisher(p Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

func WithSleep(fn SleepFunc) Option {
	return func(c *Controller) { c.sleep = fn }
}

// WithState - 저장된 스냅샷에서 시작
func WithState(st State) Option {
	return func(c *Controller) { c.st.restore(st) }
}

func NewController(sessionID string, recommender Recommender, images ImageGenerator, opts ...Option) *Controller {
	c := &Controller{
		sessionID:   sessionID,
		recommender: recommender,
		images:      images,
		publisher:   nopPublisher{},
		sleep:       sleepContext,
		st:          newStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Controller) SessionID() string { return c.sessionID }

// Snapshot - 현재 상태 복사본
func (c *Controller) Snapshot() State { return c.st.snapshot() }

// Dispatch - 액션 하나를 끝까지 처리. 서비스 에러는 메시지로 변환되어 nil 반환
func (c *Controller) Dispatch(ctx context.Context, action Action) error {
	if _, ok := action.(Reset); ok {
		c.reset()
		return nil
	}

	c.turnMu.Lock()
	defer c.turnMu.Unlock()

	t := c.begin()
	switch a := action.(type) {
	case ApplySettings:
		return c.applySettings(ctx, t, a.Settings)
	case Send:
		return c.send(ctx, t, a)
	case SetFeedback:
		return c.feedback(ctx, t, a)
	case RecommendFromHistory:
		return c.recommendFromHistory(ctx, t, a)
	case AddImageToHistory:
		c.addImageToHistory(t, a)
		return nil
	case DeleteLiked:
		return c.deleteLiked(t, a.MessageID)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
}

func (c *Controller) reset() {
	c.st.mu.Lock()
	c.st.resetLocked()
	st := cloneState(c.st.state)
	c.st.mu.Unlock()

	log.Printf("🔄 [Chat] Session %s reset", c.sessionID)
	c.publish(Event{Type: EventReset, State: &st})
}

func (c *Controller) applySettings(ctx context.Context, t *turn, next Settings) error {
	next = next.clone()
	cur := c.st.snapshot().Settings
	if cur.Equal(next) {
		return nil
	}
	regionChanged := next.Region != cur.Region

	t.add(Message{Role: RoleUser, Text: settingsSummary(cur, next)})
	t.commitSettings(next)

	if !regionChanged {
		t.add(Message{Role: RoleAssistant, Text: SettingsUpdatedText})
		t.setQuickReplies(nil)
		return nil
	}

	t.setQuickReplies(nil)
	t.setLoading(true)
	defer t.setLoading(false)

	id := t.add(Message{Role: RoleAssistant, Text: PlaceholderDots, Pending: true})

	data, err := c.weatherTurn(ctx, t, id, next)
	if err != nil {
		log.Printf("⚠️  [Chat] Weather turn failed for %s: %v", next.Region, err)
		t.resolve(id, func(m *Message) { m.Text = WeatherErrorMessage(next.Tone, ErrorText(err)) })
		t.setQuickReplies(WeatherRetryQuickReplies)
		return nil
	}

	t.setPendingSuggestion(data.Suggestion)
	report := WeatherReportMessage(next.Tone, next.Region, data)
	t.resolve(id, func(m *Message) {
		m.Text = report + "\n\n" + data.Suggestion
		m.GeneratedImage = ""
	})
	t.setQuickReplies(WeatherQuickReplies)
	return nil
}

func (c *Controller) weatherTurn(ctx context.Context, t *turn, id int64, s Settings) (*WeatherRecommendation, error) {
	for _, step := range WeatherProgressMessages(s.Tone, s.Region) {
		t.progress(id, step.Text)
		if step.Delay > 0 {
			if err := c.sleep(ctx, step.Delay); err != nil {
				return nil, err
			}
		}
	}
	data, err := c.recommender.WeatherRecommendation(ctx, s)
	if err == nil && data == nil {
		err = errors.New(DefaultErrorText)
	}
	return data, err
}

// settingsSummary - "설정 변경: 서울, 남성, 친절한 튜터, 선호색: ..." 형태의 사용자 메시지
func settingsSummary(cur, next Settings) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "설정 변경: %s, %s, %s", next.Region, GenderLabel(next.Gender), ToneLabel(next.Tone))
	if len(next.PreferredColors) > 0 {
		sb.WriteString(", 선호색: " + strings.Join(sortedCopy(next.PreferredColors), ", "))
	}
	if next.Height != "" || next.Weight != "" {
		sb.WriteString(", 신체정보 변경")
	}
	if next.ProfileImage != cur.ProfileImage {
		sb.WriteString(", 프로필 사진 변경")
	}
	return sb.String()
}

func (c *Controller) requireSettings(s Settings) error {
	if s.Complete() {
		return nil
	}
	c.publish(Event{Type: EventSettingsRequired})
	return ErrSettingsRequired
}

func (c *Controller) send(ctx context.Context, t *turn, a Send) error {
	text := strings.TrimSpace(a.Text)
	snap := c.st.snapshot()
	settings := snap.Settings

	if err := c.requireSettings(settings); err != nil {
		return err
	}

	if IsImageRequest(text) && snap.PendingSuggestion != "" {
		c.imageFromSuggestion(ctx, t, text, snap.PendingSuggestion, settings)
		return nil
	}

	if text == "" && a.Image == "" {
		return nil
	}

	var userImage string
	if a.Image != "" {
		data, mime, err := utils.ParseDataURL(a.Image)
		if err != nil {
			log.Printf("⚠️  [Chat] Invalid attached image in session %s: %v", c.sessionID, err)
			t.add(Message{Role: RoleAssistant, Text: ImageProcessFailedText})
			return nil
		}
		userImage = utils.EncodeDataURL(data, mime)
		t.add(Message{Role: RoleUser, UserImage: userImage})
	}
	if text != "" {
		t.add(Message{Role: RoleUser, Text: text})
	}

	withImage := userImage != ""
	t.setQuickReplies(nil)
	t.setLoading(true)
	defer t.setLoading(false)

	id := t.add(Message{Role: RoleAssistant, Text: AnalysisPlaceholderMessage(withImage, settings.Tone), Pending: true})

	if withImage {
		data, err := c.recommender.ImageRecommendation(ctx, userImage, text, settings)
		if err == nil && data == nil {
			err = errors.New(DefaultErrorText)
		}
		if err != nil {
			log.Printf("⚠️  [Chat] Image recommendation failed: %v", err)
			t.resolve(id, func(m *Message) { m.Text = AnalysisErrorMessage(true, settings.Tone, ErrorText(err)) })
			return nil
		}

		t.resolve(id, func(m *Message) { m.Text = data.Analysis })
		t.setQuickReplies(data.QuickReplies)

		// 분석과 제안을 별도 말풍선으로 보여주기 위한 간격. 취소되어도 제안은 추가함
		_ = c.sleep(ctx, SuggestionDelay)
		t.add(Message{Role: RoleAssistant, Text: data.Suggestion})
		t.setPendingSuggestion(data.Suggestion)
		return nil
	}

	data, err := c.recommender.TextRecommendation(ctx, text, settings)
	if err == nil && data == nil {
		err = errors.New(DefaultErrorText)
	}
	if err != nil {
		log.Printf("⚠️  [Chat] Text recommendation failed: %v", err)
		t.resolve(id, func(m *Message) { m.Text = AnalysisErrorMessage(false, settings.Tone, ErrorText(err)) })
		return nil
	}

	t.resolve(id, func(m *Message) {
		m.Text = data.Advice
		m.GeneratedImage = ""
	})
	t.setPendingSuggestion(data.Advice)
	t.setQuickReplies(data.QuickReplies)
	return nil
}

// imageFromSuggestion - PendingSuggestion으로 코디 이미지 생성. 제안은 호출 전에 소비됨
func (c *Controller) imageFromSuggestion(ctx context.Context, t *turn, text, suggestion string, settings Settings) {
	t.add(Message{Role: RoleUser, Text: text})
	t.setQuickReplies(nil)
	t.setLoading(true)
	defer t.setLoading(false)

	id := t.add(Message{
		Role:         RoleAssistant,
		Text:         ImageGenerationPlaceholderMessage(settings.Tone),
		LoadingImage: true,
		Pending:      true,
	})
	t.setPendingSuggestion("")

	imageURL, err := c.images.GenerateOutfitImage(ctx, c.sessionID, suggestion, settings)
	c.resolveImage(t, id, imageURL, suggestion, err, settings.Tone)
}

func (c *Controller) resolveImage(t *turn, id int64, imageURL, prompt string, err error, tone Tone) {
	switch {
	case err != nil:
		log.Printf("⚠️  [Chat] Image generation failed: %v", err)
		t.resolve(id, func(m *Message) { m.Text = ImageGenerationErrorMessage(tone, ErrorText(err)) })
	case imageURL == "":
		t.resolve(id, func(m *Message) { m.Text = ImageGenerationErrorMessage(tone, ImageNotGeneratedText) })
	default:
		t.resolve(id, func(m *Message) {
			m.Text = ""
			m.GeneratedImage = imageURL
			m.ImagePrompt = prompt
		})
		t.add(Message{Role: RoleAssistant, Text: ImageGenerationSuccessMessage(tone)})
	}
}

func (c *Controller) feedback(ctx context.Context, t *turn, a SetFeedback) error {
	var target Message
	var next Feedback
	found := t.mutate(func(s *store) []Event {
		idx := s.indexLocked(a.MessageID)
		if idx < 0 {
			return nil
		}
		m := &s.state.Messages[idx]
		next = a.Feedback
		if m.Feedback == a.Feedback {
			next = FeedbackNone
		}
		m.Feedback = next
		target = *m
		return []Event{{Type: EventMessageUpdated, Message: &target}}
	})
	if !found || target.ID == 0 {
		return ErrMessageNotFound
	}

	if next != FeedbackDislike || target.GeneratedImage == "" || target.ImagePrompt == "" {
		return nil
	}

	settings := c.st.snapshot().Settings
	t.setLoading(true)
	defer t.setLoading(false)
	t.setQuickReplies(nil)
	t.add(Message{Role: RoleUser, Text: ShowDifferentStyleText})
	id := t.add(Message{Role: RoleAssistant, Text: AnalysisPlaceholderMessage(false, settings.Tone), Pending: true})

	data, err := c.recommender.AlternativeSuggestion(ctx, target.ImagePrompt, settings)
	if err == nil && data == nil {
		err = errors.New(DefaultErrorText)
	}
	if err != nil {
		log.Printf("⚠️  [Chat] Alternative suggestion failed: %v", err)
		t.resolve(id, func(m *Message) { m.Text = AnalysisErrorMessage(false, settings.Tone, ErrorText(err)) })
		return nil
	}

	t.resolve(id, func(m *Message) { m.Text = data.Suggestion })
	t.setPendingSuggestion(data.Suggestion)
	t.setQuickReplies(data.QuickReplies)
	return nil
}

func (c *Controller) recommendFromHistory(ctx context.Context, t *turn, a RecommendFromHistory) error {
	snap := c.st.snapshot()
	settings := snap.Settings
	if err := c.requireSettings(settings); err != nil {
		return err
	}

	images := []string{}
	for _, m := range snap.LikedMessages() {
		if len(a.MessageIDs) == 0 || slices.Contains(a.MessageIDs, m.ID) {
			images = append(images, m.Image())
		}
	}
	if len(images) == 0 {
		return nil
	}

	userText := "내코디 전체 스타일로 새로운 추천!"
	if len(a.MessageIDs) > 0 {
		userText = fmt.Sprintf("%d개의 선택한 코디로 새로운 스타일 추천!", len(images))
	}
	t.add(Message{Role: RoleUser, Text: userText})

	t.setLoading(true)
	defer t.setLoading(false)
	t.setQuickReplies(nil)

	id := t.add(Message{
		Role:         RoleAssistant,
		Text:         ImageGenerationPlaceholderMessage(settings.Tone),
		LoadingImage: true,
		Pending:      true,
	})

	res, err := c.images.GenerateFromLikedImages(ctx, c.sessionID, images, settings)
	if err == nil && res == nil {
		res = &LikedImagesResult{}
	}
	var imageURL, suggestion string
	if res != nil {
		imageURL, suggestion = res.ImageURL, res.Suggestion
	}
	c.resolveImage(t, id, imageURL, suggestion, err, settings.Tone)
	return nil
}

func (c *Controller) addImageToHistory(t *turn, a AddImageToHistory) {
	data, mime, err := utils.ParseDataURL(a.Image)
	if err != nil {
		log.Printf("⚠️  [Chat] Failed to add image to history: %v", err)
		t.add(Message{Role: RoleAssistant, Text: HistoryAddFailedText})
		return
	}
	t.add(Message{
		Role:        RoleUser,
		UserImage:   utils.EncodeDataURL(data, mime),
		Feedback:    FeedbackLike,
		HistoryOnly: true,
	})
}

func (c *Controller) deleteLiked(t *turn, id int64) error {
	found := false
	t.mutate(func(s *store) []Event {
		idx := s.indexLocked(id)
		if idx < 0 {
			return nil
		}
		found = true
		s.state.Messages[idx].Feedback = FeedbackNone
		m := s.state.Messages[idx]
		return []Event{{Type: EventMessageUpdated, Message: &m}}
	})
	if !found {
		return ErrMessageNotFound
	}
	return nil
}

func (c *Controller) publish(ev Event) {
	ev.SessionID = c.sessionID
	c.publisher.Publish(ev)
}
