package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, bool) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockCache) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type loader struct {
	calls  int
	report string
	err    error
}

func (l *loader) load(_ context.Context, station string) (string, error) {
	l.calls++
	if l.err != nil {
		return "", l.err
	}
	return l.report + " at " + station, nil
}

func TestReadThroughCache_SkipCache(t *testing.T) {
	cache := &mockCache{}
	l := &loader{report: "Clear"}
	rtc := NewReadThroughCache[string, string, string](cache, l.load, true)

	got, err := rtc.Get(context.Background(), "KSFO", "KSFO", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "Clear at KSFO", got)
	require.Equal(t, 1, l.calls)
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestReadThroughCache_Hit(t *testing.T) {
	cache := &mockCache{}
	cache.On("Get", mock.Anything, "KSFO").Return("Fog", true).Once()
	l := &loader{report: "Clear"}
	rtc := NewReadThroughCache[string, string, string](cache, l.load, false)

	got, err := rtc.Get(context.Background(), "KSFO", "KSFO", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "Fog", got)
	require.Zero(t, l.calls)
	cache.AssertExpectations(t)
}

func TestReadThroughCache_MissLoadsAndStores(t *testing.T) {
	cache := &mockCache{}
	cache.On("Get", mock.Anything, "KSFO").Return("", false).Once()
	cache.On("Set", mock.Anything, "KSFO", "Clear at KSFO", time.Minute).Once()
	l := &loader{report: "Clear"}
	rtc := NewReadThroughCache[string, string, string](cache, l.load, false)

	got, err := rtc.Get(context.Background(), "KSFO", "KSFO", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "Clear at KSFO", got)
	require.Equal(t, 1, l.calls)
	cache.AssertExpectations(t)
}

func TestReadThroughCache_ErrorsAreNotCached(t *testing.T) {
	cache := &mockCache{}
	cache.On("Get", mock.Anything, "KSFO").Return("", false).Twice()
	l := &loader{err: errors.New("station offline")}
	rtc := NewReadThroughCache[string, string, string](cache, l.load, false)

	for i := 0; i < 2; i++ {
		_, err := rtc.Get(context.Background(), "KSFO", "KSFO", time.Minute)
		require.EqualError(t, err, "station offline")
	}
	require.Equal(t, 2, l.calls)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestReadThroughCache_InMemoryRoundTrip(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("weather", DefaultExpiration, DefaultCleanupInterval)
	l := &loader{report: "Rain"}
	rtc := NewReadThroughCache[string, string, string](cache, l.load, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := rtc.Get(ctx, "KSEA", "KSEA", time.Minute)
		require.NoError(t, err)
		require.Equal(t, "Rain at KSEA", got)
	}
	require.Equal(t, 1, l.calls)

	require.NoError(t, rtc.Invalidate(ctx, "KSEA"))
	_, err := rtc.Get(ctx, "KSEA", "KSEA", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, l.calls)
}
