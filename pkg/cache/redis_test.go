package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache", Port: 6380, Password: "secret", DB: 2})

	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Equal(t, time.Second, opts.ReadTimeout)
}

func TestOptionsCustomDialTimeout(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "::1", Port: 6379, DialTimeout: 250 * time.Millisecond})

	assert.Equal(t, "[::1]:6379", opts.Addr)
	assert.Equal(t, 250*time.Millisecond, opts.DialTimeout)
}
