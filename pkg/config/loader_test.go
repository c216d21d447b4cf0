package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/redial/pkg/config"
)

func TestLoad(t *testing.T) {
	type sweepConfig struct {
		Interval  string `env:"TEST_SWEEP_INTERVAL" envDefault:"1m"`
		BatchSize int    `env:"TEST_SWEEP_BATCH_SIZE" envDefault:"100"`
	}

	t.Run("applies defaults", func(t *testing.T) {
		config.ResetCache()

		var cfg sweepConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "1m", cfg.Interval)
		assert.Equal(t, 100, cfg.BatchSize)
	})

	t.Run("reads from environment", func(t *testing.T) {
		t.Setenv("TEST_SWEEP_INTERVAL", "30s")
		t.Setenv("TEST_SWEEP_BATCH_SIZE", "25")

		var cfg sweepConfig
		require.NoError(t, config.ForceReloadConfig(&cfg))
		assert.Equal(t, "30s", cfg.Interval)
		assert.Equal(t, 25, cfg.BatchSize)
	})

	t.Run("caches per type", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_SWEEP_BATCH_SIZE", "7")

		var first sweepConfig
		require.NoError(t, config.Load(&first))
		require.Equal(t, 7, first.BatchSize)

		// A later env change is invisible without a forced reload.
		t.Setenv("TEST_SWEEP_BATCH_SIZE", "8")
		var second sweepConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, 7, second.BatchSize)
	})

	t.Run("required variable missing", func(t *testing.T) {
		type strictConfig struct {
			DSN string `env:"TEST_REQUIRED_DSN,required"`
		}

		config.ResetCache()
		var cfg strictConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[struct{}](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("missing file is an error", func(t *testing.T) {
		err := config.LoadEnv("testdata/does_not_exist.env")
		assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	})
}

func TestMustLoad(t *testing.T) {
	type strictConfig struct {
		Token string `env:"TEST_MUST_LOAD_TOKEN,required"`
	}

	config.ResetCache()
	assert.Panics(t, func() {
		var cfg strictConfig
		config.MustLoad(&cfg)
	})
}
