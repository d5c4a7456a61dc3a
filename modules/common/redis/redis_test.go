package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wearly-server/modules/common/config"
)

func TestOptions(t *testing.T) {
	cfg := &config.Config{
		RedisHost:     "cache.internal",
		RedisPort:     "6380",
		RedisUsername: "default",
		RedisPassword: "secret",
		RedisUseTLS:   true,
	}

	opts := Options(cfg)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "default", opts.Username)
	assert.Equal(t, "secret", opts.Password)
	if assert.NotNil(t, opts.TLSConfig) {
		assert.Equal(t, "cache.internal", opts.TLSConfig.ServerName)
	}

	cfg.RedisUseTLS = false
	assert.Nil(t, Options(cfg).TLSConfig)
}
