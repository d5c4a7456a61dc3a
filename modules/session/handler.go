package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"wearly-server/modules/chat"
	"wearly-server/modules/common/database"
	"wearly-server/modules/geo"
)

// 에러 코드
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeSettingsRequired = "SETTINGS_REQUIRED"
	ErrCodeSessionNotFound  = "SESSION_NOT_FOUND"
	ErrCodeMessageNotFound  = "MESSAGE_NOT_FOUND"
	ErrCodeRegionNotFound   = "REGION_NOT_FOUND"
	ErrCodeShuttingDown     = "SHUTTING_DOWN"
	ErrCodeInternalError    = "INTERNAL_ERROR"

	maxBodyBytes      = 12 << 20
	defaultOutfitRows = 20
	maxOutfitRows     = 100
)

// Response - 공통 응답
type Response struct {
	Success      bool   `json:"success"`
	Data         any    `json:"data,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
}

// SessionResponse - 액션 처리 후 세션 상태
type SessionResponse struct {
	SessionID string     `json:"sessionId"`
	State     chat.State `json:"state"`
}

// OutfitLister - 생성 이미지 기록 조회
type OutfitLister interface {
	ListOutfits(sessionID string, limit int) ([]database.OutfitImage, error)
}

type Handler struct {
	manager *Manager
	outfits OutfitLister
	catalog Catalog
}

func NewHandler(manager *Manager, outfits OutfitLister) *Handler {
	return &Handler{
		manager: manager,
		outfits: outfits,
		catalog: DefaultCatalog(),
	}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/options", h.HandleOptions).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/regions", h.HandleRegions).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/region", h.HandleRegionFromCoords).Methods("GET", "OPTIONS")

	r.HandleFunc("/api/sessions", h.HandleCreateSession).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/sessions/{id}", h.HandleGetSession).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/sessions/{id}/settings", h.HandleApplySettings).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/sessions/{id}/messages", h.HandleSend).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/sessions/{id}/messages/{messageId:[0-9]+}/feedback", h.HandleFeedback).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/sessions/{id}/liked", h.HandleLiked).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/sessions/{id}/history", h.HandleAddHistory).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/sessions/{id}/history/recommend", h.HandleRecommend).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/sessions/{id}/history/{messageId:[0-9]+}", h.HandleDeleteLiked).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/api/sessions/{id}/reset", h.HandleReset).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/sessions/{id}/outfits", h.HandleOutfits).Methods("GET", "OPTIONS")
	log.Println("✅ Session routes registered")
}

// HandleOptions - GET /api/options
func (h *Handler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.catalog})
}

// HandleRegions - GET /api/regions
func (h *Handler) HandleRegions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: geo.Regions()})
}

// HandleRegionFromCoords - GET /api/region?lat=&lon=
func (h *Handler) HandleRegionFromCoords(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "lat and lon are required", ErrCodeInvalidRequest)
		return
	}

	region, err := geo.RegionFromCoords(lat, lon)
	if err != nil {
		writeError(w, http.StatusNotFound, "지역을 찾을 수 없습니다.", ErrCodeRegionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: region})
}

// HandleCreateSession - POST /api/sessions
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Create(r.Context())
	if err != nil {
		h.writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Success: true, Data: SessionResponse{SessionID: s.ID(), State: s.Snapshot()}})
}

// HandleGetSession - GET /api/sessions/{id}
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.manager.Get(r.Context(), id)
	if err != nil {
		h.writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: SessionResponse{SessionID: id, State: s.Snapshot()}})
}

// HandleApplySettings - POST /api/sessions/{id}/settings
func (h *Handler) HandleApplySettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	h.dispatch(w, r, req.Action())
}

// HandleSend - POST /api/sessions/{id}/messages
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	h.dispatch(w, r, req.Action())
}

// HandleFeedback - POST /api/sessions/{id}/messages/{messageId}/feedback
func (h *Handler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	messageID, ok := pathMessageID(w, r)
	if !ok {
		return
	}
	var req FeedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// 경로의 id가 우선
	req.MessageID = messageID
	if !validateRequest(w, &req) {
		return
	}
	h.dispatch(w, r, req.Action())
}

// HandleLiked - GET /api/sessions/{id}/liked
func (h *Handler) HandleLiked(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: s.Snapshot().LikedMessages()})
}

// HandleAddHistory - POST /api/sessions/{id}/history
func (h *Handler) HandleAddHistory(w http.ResponseWriter, r *http.Request) {
	var req HistoryRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	h.dispatch(w, r, req.Action())
}

// HandleRecommend - POST /api/sessions/{id}/history/recommend
func (h *Handler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	h.dispatch(w, r, req.Action())
}

// HandleDeleteLiked - DELETE /api/sessions/{id}/history/{messageId}
func (h *Handler) HandleDeleteLiked(w http.ResponseWriter, r *http.Request) {
	messageID, ok := pathMessageID(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, DeleteLikedRequest{MessageID: messageID}.Action())
}

// HandleReset - POST /api/sessions/{id}/reset
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, ResetRequest{}.Action())
}

// HandleOutfits - GET /api/sessions/{id}/outfits?limit=
func (h *Handler) HandleOutfits(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.manager.Get(r.Context(), id); err != nil {
		h.writeDispatchError(w, err)
		return
	}

	limit := defaultOutfitRows
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", ErrCodeInvalidRequest)
			return
		}
		limit = min(parsed, maxOutfitRows)
	}

	rows := []database.OutfitImage{}
	if h.outfits != nil {
		var err error
		rows, err = h.outfits.ListOutfits(id, limit)
		if err != nil {
			log.Printf("❌ [Session] Failed to list outfits for %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "이미지 기록을 불러오지 못했습니다.", ErrCodeInternalError)
			return
		}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: rows})
}

// dispatch - 턴이 끝날 때까지 기다린 뒤 최종 상태 반환
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, action chat.Action) {
	id := mux.Vars(r)["id"]
	if err := h.manager.Dispatch(r.Context(), id, action); err != nil {
		h.writeDispatchError(w, err)
		return
	}

	s, err := h.manager.Get(r.Context(), id)
	if err != nil {
		h.writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: SessionResponse{SessionID: id, State: s.Snapshot()}})
}

func (h *Handler) writeDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrSettingsRequired):
		writeError(w, http.StatusConflict, "지역, 성별, 말투를 먼저 설정해주세요.", ErrCodeSettingsRequired)
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found", ErrCodeSessionNotFound)
	case errors.Is(err, chat.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "Message not found", ErrCodeMessageNotFound)
	case errors.Is(err, ErrShuttingDown):
		writeError(w, http.StatusServiceUnavailable, "Server is shutting down", ErrCodeShuttingDown)
	default:
		log.Printf("❌ [Session] Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", ErrCodeInternalError)
	}
}

func pathMessageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["messageId"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid message id", ErrCodeInvalidRequest)
		return 0, false
	}
	return id, true
}

// decodeRequest - JSON 파싱 + 검증. 실패 시 400 응답 후 false
func decodeRequest(w http.ResponseWriter, r *http.Request, req any) bool {
	return decodeBody(w, r, req) && validateRequest(w, req)
}

// decodeBody - 빈 본문은 zero value로 취급
func decodeBody(w http.ResponseWriter, r *http.Request, req any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		log.Printf("❌ [Session] Invalid request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request format", ErrCodeInvalidRequest)
		return false
	}
	return true
}

func validateRequest(w http.ResponseWriter, req any) bool {
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err), ErrCodeInvalidRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("invalid field %s (%s)", fe.Field(), fe.Tag())
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("⚠️  [Session] Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, Response{Success: false, ErrorMessage: message, ErrorCode: code})
}
