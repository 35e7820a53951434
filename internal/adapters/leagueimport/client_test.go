package leagueimport_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/leaguelearn/internal/adapters/leagueimport"
)

func TestActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leagues/L42/activity", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total_managers": 12,
			"trades": [
				{"id":"t1","manager_ids":["a","b"],"asset_count":3,"completed_at":"2024-10-01T00:00:00Z"},
				{"id":"t2","manager_ids":["c","d"],"asset_count":2,"completed_at":"2024-10-03T00:00:00Z"}
			]
		}`))
	}))
	defer srv.Close()

	c := leagueimport.New(srv.URL, leagueimport.WithTimeout(time.Second))
	act, err := c.Activity(context.Background(), "L42")
	require.NoError(t, err)
	assert.Equal(t, "L42", act.LeagueID)
	assert.Equal(t, 12, act.TotalManagers)
	require.Len(t, act.Trades, 2)
	assert.Equal(t, []string{"a", "b"}, act.Trades[0].ManagerIDs)
	assert.Equal(t, 2, act.Trades[1].AssetCount)
}

func TestActivity_ServerErrorIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := leagueimport.New(srv.URL)
	_, err := c.Activity(context.Background(), "L1")
	assert.True(t, errors.Is(err, leagueimport.ErrNoData))
}

func TestActivity_MalformedBodyIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"trades":`))
	}))
	defer srv.Close()

	_, err := leagueimport.New(srv.URL).Activity(context.Background(), "L1")
	assert.True(t, errors.Is(err, leagueimport.ErrNoData))
}

func TestActivity_TimeoutIsNoData(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := leagueimport.New(srv.URL, leagueimport.WithTimeout(50*time.Millisecond))
	_, err := c.Activity(context.Background(), "L1")
	assert.True(t, errors.Is(err, leagueimport.ErrNoData))
}

func TestActivity_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := leagueimport.New(srv.URL)
	for i := 0; i < 3; i++ {
		_, err := c.Activity(context.Background(), "L1")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())

	_, err := c.Activity(context.Background(), "L1")
	assert.True(t, errors.Is(err, leagueimport.ErrNoData))
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(3), hits.Load())
}

func TestActivity_NotConfigured(t *testing.T) {
	_, err := leagueimport.New("").Activity(context.Background(), "L1")
	assert.True(t, errors.Is(err, leagueimport.ErrNotConfigured))
}

func TestActivity_EmptyLeagueID(t *testing.T) {
	_, err := leagueimport.New("http://127.0.0.1:1").Activity(context.Background(), "  ")
	assert.True(t, errors.Is(err, leagueimport.ErrNoData))
}

func TestActivity_RateLimitedContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_managers":10,"trades":[]}`))
	}))
	defer srv.Close()

	c := leagueimport.New(srv.URL, leagueimport.WithRateLimit(0.001, 1))
	_, err := c.Activity(context.Background(), "L1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Activity(ctx, "L1")
	assert.True(t, errors.Is(err, leagueimport.ErrNoData))
}
