package rdap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMapAppliesKnownKeys(t *testing.T) {
	opt, err := FromMap(map[string]any{
		"includeRaw":      true,
		"redactPII":       false,
		"allowPrivateIPs": true,
		"timeoutMs":       float64(2500),
		"cache":           false,
		"logging":         map[string]any{"enabled": true},
	})
	require.NoError(t, err)

	cfg := defaultConfig()
	opt(&cfg)

	assert.True(t, cfg.includeRaw)
	assert.False(t, cfg.redactPII)
	assert.True(t, cfg.allowPrivateIPs)
	assert.Equal(t, 2500*time.Millisecond, cfg.timeout)
	assert.False(t, cfg.cache.Enabled)
	assert.True(t, cfg.logging.Enabled)
}

func TestFromMapRejectsUnknownKey(t *testing.T) {
	_, err := FromMap(map[string]any{"bogus": true})
	require.Error(t, err)

	var ie *InvalidInputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "option", ie.Kind)
}

func TestFromMapIgnoresWrongValueType(t *testing.T) {
	opt, err := FromMap(map[string]any{"includeRaw": "yes"})
	require.NoError(t, err)

	cfg := defaultConfig()
	before := cfg.includeRaw
	opt(&cfg)
	assert.Equal(t, before, cfg.includeRaw, "a type-mismatched value is left at its default, not coerced")
}

func TestDefaultConfigIsUsable(t *testing.T) {
	cfg := defaultConfig()
	assert.True(t, cfg.cache.Enabled)
	assert.Equal(t, CacheBackendMemory, cfg.cache.Backend)
	assert.True(t, cfg.redactPII)
	assert.False(t, cfg.allowPrivateIPs)
	assert.Greater(t, cfg.timeout, time.Duration(0))
	assert.True(t, cfg.retry.CircuitBreaker.Enabled)
}

func TestWithOptionsOverrideDefaults(t *testing.T) {
	cfg := defaultConfig()
	WithTimeout(5 * time.Second)(&cfg)
	WithIncludeRaw(true)(&cfg)
	WithRedactPII(false)(&cfg)
	WithAllowPrivateIPs(true)(&cfg)

	assert.Equal(t, 5*time.Second, cfg.timeout)
	assert.True(t, cfg.includeRaw)
	assert.False(t, cfg.redactPII)
	assert.True(t, cfg.allowPrivateIPs)
}
