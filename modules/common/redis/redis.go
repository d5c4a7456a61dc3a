package redis

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"wearly-server/modules/common/config"
)

// Connect - Redis 연결 생성. 연결 실패 시 nil (세션 스냅샷/날씨 L2 캐시 비활성화)
func Connect(cfg *config.Config) *redis.Client {
	log.Printf("🔌 [Redis] Connecting to %s", cfg.GetRedisAddr())

	rdb := redis.NewClient(Options(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  [Redis] Ping failed, continuing without Redis: %v", err)
		_ = rdb.Close()
		return nil
	}

	log.Printf("✅ [Redis] Connected")
	return rdb
}

// Options - 설정으로부터 클라이언트 옵션 생성
func Options(cfg *config.Config) *redis.Options {
	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		tlsConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: cfg.RedisHost,
		}
	}

	return &redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		TLSConfig:    tlsConfig,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
