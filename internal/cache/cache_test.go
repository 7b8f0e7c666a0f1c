package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infa-ajaykumar/RealityBuilder/internal/redisx"
)

type fakeBackend struct {
	data    map[string]string
	getErr  error
	setErr  error
	getN    int
	setN    int
	lastTTL time.Duration
}

func newFakeBackend() *fakeBackend { return &fakeBackend{data: map[string]string{}} }

func (f *fakeBackend) Get(_ context.Context, key string) (string, error) {
	f.getN++
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", redisx.ErrNotFound
	}
	return v, nil
}

func (f *fakeBackend) Set(_ context.Context, key, val string, ttl time.Duration) error {
	f.setN++
	f.lastTTL = ttl
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = val
	return nil
}

func TestKeyOrderInsensitive(t *testing.T) {
	a := Key("props", map[string]string{"min_price": "1500", "max_price": "2500", "sort_by": "price"})
	b := Key("props", map[string]string{"sort_by": "price", "max_price": "2500", "min_price": "1500"})
	assert.Equal(t, a, b)

	c := Key("props", map[string]string{"min_price": "1501", "max_price": "2500", "sort_by": "price"})
	assert.NotEqual(t, a, c)

	d := Key("meta", map[string]string{"min_price": "1500", "max_price": "2500", "sort_by": "price"})
	assert.NotEqual(t, a, d, "prefix separates endpoint namespaces")
}

func TestKeyEmptyParams(t *testing.T) {
	assert.Equal(t, Key("meta", nil), Key("meta", map[string]string{}))
}

func TestGetOrComputeMissThenHit(t *testing.T) {
	backend := newFakeBackend()
	c := New(backend, "props", time.Minute)
	params := map[string]string{"page": "1"}
	computes := 0
	compute := func(context.Context) ([]byte, error) {
		computes++
		return []byte(`{"items":[]}`), nil
	}

	payload, hit, err := c.GetOrCompute(context.Background(), params, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, computes)
	assert.Equal(t, time.Minute, backend.lastTTL)

	payload2, hit, err := c.GetOrCompute(context.Background(), params, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, computes, "second call served from cache")
	assert.Equal(t, payload, payload2)
}

func TestGetOrComputeBackendDownFailsOpen(t *testing.T) {
	backend := newFakeBackend()
	backend.getErr = errors.New("redis down")
	backend.setErr = errors.New("redis down")
	c := New(backend, "props", time.Minute)

	payload, hit, err := c.GetOrCompute(context.Background(), nil, func(context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("ok"), payload)
}

func TestGetOrComputeComputeErrorNotCached(t *testing.T) {
	backend := newFakeBackend()
	c := New(backend, "props", time.Minute)

	_, _, err := c.GetOrCompute(context.Background(), nil, func(context.Context) ([]byte, error) {
		return nil, errors.New("search store error")
	})
	require.Error(t, err)
	assert.Zero(t, backend.setN, "errors must not be cached")
}
