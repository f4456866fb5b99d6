package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")
	if err := mc.Ping(); err != nil {
		t.Skip("Memcached is not available, skipping test")
	}

	err := mc.Set("dou_rate_limited", []byte("300"), 2*time.Second)
	assert.NoError(t, err)

	value, err := mc.Get("dou_rate_limited")
	assert.NoError(t, err)
	assert.Equal(t, "300", string(value))

	err = mc.Delete("dou_rate_limited")
	assert.NoError(t, err)

	_, err = mc.Get("dou_rate_limited")
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, mc.Delete("dou_rate_limited"), "deleting a missing key is not an error")
}

func TestMemoryCache(t *testing.T) {
	now := time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC)
	mc := NewMemoryCache()
	mc.now = func() time.Time { return now }

	_, err := mc.Get("djinni_rate_limited")
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, mc.Set("djinni_rate_limited", []byte("60"), time.Minute))
	value, err := mc.Get("djinni_rate_limited")
	assert.NoError(t, err)
	assert.Equal(t, "60", string(value))

	now = now.Add(time.Minute)
	_, err = mc.Get("djinni_rate_limited")
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, mc.Set("forever", []byte("1"), 0))
	now = now.Add(24 * time.Hour)
	_, err = mc.Get("forever")
	assert.NoError(t, err)

	assert.NoError(t, mc.Delete("forever"))
	_, err = mc.Get("forever")
	assert.ErrorIs(t, err, ErrMiss)
}
