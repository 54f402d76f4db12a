package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edustream-api/pkg/config"
)

func TestOptionsPrefersURL(t *testing.T) {
	opts, err := Options(config.RedisConfig{URL: "redis://:secret@cache:6380/2", Host: "ignored", Port: 1})
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestOptionsRejectsBadURL(t *testing.T) {
	_, err := Options(config.RedisConfig{URL: "http://not-redis"})
	assert.Error(t, err)
}

func TestNewRedisPings(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()

	client, err := NewRedis(context.Background(), config.RedisConfig{URL: "redis://" + addr})
	require.NoError(t, err)
	defer client.Close()

	srv.Close()
	_, err = NewRedis(context.Background(), config.RedisConfig{URL: "redis://" + addr})
	assert.Error(t, err)
}
