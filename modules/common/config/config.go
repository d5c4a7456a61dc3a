package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Redis
	RedisHost     string `validate:"required"`
	RedisPort     string `validate:"required,numeric"`
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase (비어있으면 생성 이미지는 data URL로 반환)
	SupabaseURL            string `validate:"omitempty,url"`
	SupabaseServiceKey     string `validate:"required_with=SupabaseURL"`
	SupabaseStorageBaseURL string
	SupabaseBucket         string `validate:"required"`

	// Gemini API
	GeminiAPIKey    string   `validate:"required"`
	GeminiAPIKeys   []string `validate:"min=1,dive,required"`
	GeminiTextModel string   `validate:"required"`
	GeminiModel     string   `validate:"required"`

	// Weather
	WeatherProvider string        `validate:"oneof=seasonal open-meteo"`
	WeatherCacheTTL time.Duration `validate:"gt=0"`

	// Session
	SessionTTL         time.Duration `validate:"gt=0"`
	SessionInactiveTTL time.Duration `validate:"gt=0"`
	TurnTimeout        time.Duration `validate:"gt=0"`

	// Server
	Port string `validate:"required,numeric"`
}

var globalConfig *Config

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	cfg := &Config{
		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   getBool("REDIS_USE_TLS", false),

		// Supabase
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBaseURL: getEnv("SUPABASE_STORAGE_BASE_URL", ""),
		SupabaseBucket:         getEnv("SUPABASE_BUCKET", "attachments"),

		// Gemini API
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiTextModel: getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),

		// Weather
		WeatherProvider: getEnv("WEATHER_PROVIDER", "seasonal"),
		WeatherCacheTTL: getDuration("WEATHER_CACHE_TTL", 30*time.Minute),

		// Session
		SessionTTL:         getDuration("SESSION_TTL", 24*time.Hour),
		SessionInactiveTTL: getDuration("SESSION_INACTIVE_TTL", 2*time.Hour),
		TurnTimeout:        getDuration("TURN_TIMEOUT", 2*time.Minute),

		// Server
		Port: getEnv("PORT", "8080"),
	}
	cfg.GeminiAPIKeys = splitKeys(getEnv("GEMINI_API_KEYS", ""), cfg.GeminiAPIKey)

	// 필수 환경변수 검증
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	globalConfig = cfg

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Redis: %s:%s (TLS: %v)", cfg.RedisHost, cfg.RedisPort, cfg.RedisUseTLS)
	if cfg.StorageEnabled() {
		log.Printf("   Supabase: %s (bucket: %s)", cfg.SupabaseURL, cfg.SupabaseBucket)
	} else {
		log.Printf("   Supabase: disabled (inline data URLs)")
	}
	log.Printf("   Gemini: text=%s image=%s keys=%d", cfg.GeminiTextModel, cfg.GeminiModel, len(cfg.GeminiAPIKeys))
	log.Printf("   Weather: %s (cache %s)", cfg.WeatherProvider, cfg.WeatherCacheTTL)

	return cfg, nil
}

// GetConfig - 로드된 설정 가져오기
func GetConfig() *Config {
	if globalConfig == nil {
		log.Fatal("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// StorageEnabled - Supabase 업로드 사용 여부
func (c *Config) StorageEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, value, defaultValue)
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %s", key, value, defaultValue)
	}
	return defaultValue
}

// splitKeys - 쉼표로 구분된 키 목록 (GEMINI_API_KEY가 항상 첫 번째)
func splitKeys(raw, primary string) []string {
	keys := []string{}
	seen := map[string]bool{}
	for _, k := range append([]string{primary}, strings.Split(raw, ",")...) {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}
