package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wearly-server/modules/common/config"
	"wearly-server/modules/common/database"
	"wearly-server/modules/common/gemini"
	"wearly-server/modules/common/redis"
	"wearly-server/modules/common/storage"
	"wearly-server/modules/outfitimage"
	"wearly-server/modules/session"
	"wearly-server/modules/stylist"
	"wearly-server/modules/weather"
)

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "wearly-server",
	})
}

// 서버 메트릭 조회 엔드포인트
func getMetrics(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(manager.Summary())
	}
}

// 모든 세션 강제 정리 (관리자용)
func forceCleanupSessions(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 즉시 빈 세션 정리
		evicted := manager.CleanupEmptySessions()

		// 즉시 만료된 세션 정리
		removed := manager.CleanupExpiredSessions()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "Cleanup completed",
			"evicted": evicted,
			"removed": removed,
		})
	}
}

func newWeatherProvider(cfg *config.Config) weather.Provider {
	if cfg.WeatherProvider == "open-meteo" {
		return weather.NewOpenMeteoProvider("")
	}
	return weather.NewSeasonalProvider()
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	ctx := context.Background()

	// Redis (없으면 세션은 메모리에만, 날씨는 L1 캐시만)
	rdb := redis.Connect(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	// 날씨
	weatherService, err := weather.NewService(newWeatherProvider(cfg), rdb, cfg.WeatherCacheTTL)
	if err != nil {
		log.Fatalf("❌ Failed to init weather service: %v", err)
	}
	defer weatherService.Close()

	// 텍스트/비전 모델
	textClient, err := gemini.NewTextClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("❌ Failed to create Gemini text client: %v", err)
	}
	defer textClient.Close()
	stylistService := stylist.NewService(stylist.NewGeminiModel(textClient, cfg.GeminiTextModel), weatherService)

	// 코디 이미지 생성 + 저장
	storageClient := storage.NewClient(cfg)
	imageOpts := []outfitimage.Option{}
	if cfg.StorageEnabled() {
		dbClient, err := database.NewClient(cfg)
		if err != nil {
			log.Printf("⚠️  Supabase database unavailable, images will be returned inline: %v", err)
		} else {
			imageOpts = append(imageOpts, outfitimage.WithStorage(storageClient, dbClient))
		}
	}
	imageService := outfitimage.NewService(
		gemini.NewImageGenerator(cfg.GeminiAPIKeys, cfg.GeminiModel),
		stylistService,
		storageClient,
		imageOpts...,
	)

	// 세션
	sessionManager := session.NewManager(stylistService, imageService, rdb, session.Options{
		SessionTTL:  cfg.SessionTTL,
		InactiveTTL: cfg.SessionInactiveTTL,
		TurnTimeout: cfg.TurnTimeout,
	})

	// 정리 루틴 시작
	scheduler, err := session.NewScheduler(sessionManager)
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	scheduler.Start()

	// 라우터 설정
	r := mux.NewRouter()

	// CORS 미들웨어 적용
	r.Use(enableCORS)

	// 라우트 설정
	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ws", session.NewHub(sessionManager).HandleWebSocket)
	r.HandleFunc("/metrics", getMetrics(sessionManager)).Methods("GET")
	r.Handle("/metrics/prometheus", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/admin/cleanup", forceCleanupSessions(sessionManager)).Methods("POST")

	session.NewHandler(sessionManager, imageService).RegisterRoutes(r)

	port := cfg.Port
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🚀 Wearly Server starting on port %s", port)
	log.Printf("📡 WebSocket endpoint: ws://localhost:%s/ws", port)
	log.Printf("❤️  Health check: http://localhost:%s/health", port)
	log.Printf("📊 Metrics: http://localhost:%s/metrics", port)
	log.Printf("🧹 Admin cleanup: http://localhost:%s/admin/cleanup", port)

	// 서버 시작
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.TurnTimeout)
	defer cancel()

	if err := scheduler.Shutdown(); err != nil {
		log.Printf("⚠️  %v", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  HTTP shutdown: %v", err)
	}
	if err := sessionManager.Close(shutdownCtx); err != nil {
		log.Printf("⚠️  %v", err)
	}
	log.Printf("👋 Server stopped")
}
