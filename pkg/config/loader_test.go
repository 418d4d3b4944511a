package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/config"
)

type loaderTestConfig struct {
	Name    string        `env:"CONFIG_TEST_NAME" envDefault:"subsync"`
	Timeout time.Duration `env:"CONFIG_TEST_TIMEOUT" envDefault:"5s"`
}

type requiredTestConfig struct {
	Secret string `env:"CONFIG_TEST_REQUIRED_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "from-env")

	var cfg loaderTestConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	// cached: later env changes are not observed
	t.Setenv("CONFIG_TEST_NAME", "changed")
	var again loaderTestConfig
	require.NoError(t, config.Load(&again))
	assert.Equal(t, "from-env", again.Name)
}

func TestLoadErrors(t *testing.T) {
	var nilCfg *loaderTestConfig
	assert.ErrorIs(t, config.Load(nilCfg), config.ErrNilPointer)

	var cfg requiredTestConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	assert.Panics(t, func() {
		var c requiredTestConfig
		config.MustLoad(&c)
	})
}
