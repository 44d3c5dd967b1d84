package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{Addr: "localhost:6379"}.withDefaults()

	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)
	assert.Equal(t, 3*time.Second, opts.WriteTimeout)
	assert.Equal(t, 10, opts.PoolSize)
	assert.Equal(t, "localhost:6379", opts.Addr)
}

func TestOptionsWithDefaultsKeepsExplicitValues(t *testing.T) {
	opts := Options{
		Addr:         "redis:6380",
		DB:           2,
		DialTimeout:  time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 4 * time.Second,
		PoolSize:     25,
	}.withDefaults()

	assert.Equal(t, time.Second, opts.DialTimeout)
	assert.Equal(t, 2*time.Second, opts.ReadTimeout)
	assert.Equal(t, 4*time.Second, opts.WriteTimeout)
	assert.Equal(t, 25, opts.PoolSize)
	assert.Equal(t, 2, opts.DB)
}
