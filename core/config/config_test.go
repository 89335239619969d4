package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/core/config"
	"github.com/dmitrymomot/waypoint/core/router"
)

type appConfig struct {
	Name    string        `env:"WAYPOINT_TEST_NAME" envDefault:"demo"`
	Timeout time.Duration `env:"WAYPOINT_TEST_TIMEOUT" envDefault:"5s"`
}

type requiredConfig struct {
	Token string `env:"WAYPOINT_TEST_TOKEN,required"`
}

// Tests in this file mutate the process environment and the package cache,
// so they do not run in parallel.

func TestLoad_DefaultsAndCache(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	var first appConfig
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "demo", first.Name)
	assert.Equal(t, 5*time.Second, first.Timeout)

	t.Setenv("WAYPOINT_TEST_NAME", "changed")

	var second appConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, first, second, "second load is served from cache")

	config.Reset()
	var third appConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "changed", third.Name)
}

func TestLoad_Required(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	var cfg requiredConfig
	assert.Error(t, config.Load(&cfg))
	assert.Panics(t, func() { config.MustLoad(&cfg) })

	t.Setenv("WAYPOINT_TEST_TOKEN", "abc")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "abc", cfg.Token)
}

func TestLoad_RouterConfig(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	t.Setenv("ROUTER_CACHE_SIZE", "250")
	t.Setenv("ROUTER_WS_HANDSHAKE_TIMEOUT", "3s")

	var cfg router.Config
	require.NoError(t, config.Load(&cfg))

	def := router.DefaultConfig()
	assert.Equal(t, 250, cfg.CacheSize)
	assert.Equal(t, 3*time.Second, cfg.WSHandshakeTimeout)
	assert.Equal(t, def.WSSendQueueSize, cfg.WSSendQueueSize)
	assert.Equal(t, def.WSMaxMessageSize, cfg.WSMaxMessageSize)
}

func TestLoad_Nil(t *testing.T) {
	var cfg *appConfig
	assert.Error(t, config.Load(cfg))
}
