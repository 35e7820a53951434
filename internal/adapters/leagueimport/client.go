// Package leagueimport fetches recent trade activity from an external
// league feed. Every failure is reported as ErrNoData so callers can fall
// back to neutral signals.
package leagueimport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/pkg/logger"
	"github.com/okian/leaguelearn/pkg/metrics"
)

const (
	defaultTimeout = 3 * time.Second
	defaultBurst   = 10
	activityPath   = "/leagues/{id}/activity"
)

// Activity is one league's recent trades and roster size.
type Activity struct {
	LeagueID      string                `json:"league_id"`
	TotalManagers int                   `json:"total_managers"`
	Trades        []model.TradeActivity `json:"trades"`
}

// Client calls the league feed through a rate limiter and circuit breaker.
type Client struct {
	http        *resty.Client
	breaker     *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
	log         logger.Logger
	timeout     time.Duration
	rps         float64
	burst       int
	breakerName string
	enabled     bool
}

// New builds a client for baseURL. An empty baseURL yields a client whose
// calls all fail with ErrNotConfigured.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		log:         logger.Discard(),
		timeout:     defaultTimeout,
		burst:       defaultBurst,
		breakerName: "league-import",
	}
	for _, opt := range opts {
		opt(c)
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	c.enabled = baseURL != ""

	c.http = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(c.timeout).
		SetHeader("Accept", "application/json")

	limit := rate.Inf
	if c.rps > 0 {
		limit = rate.Limit(c.rps)
	}
	c.limiter = rate.NewLimiter(limit, c.burst)

	st := gobreaker.Settings{Name: c.breakerName}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		metrics.UpdateImportBreakerState(int(to))
		c.log.Warn(context.Background(), "import breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()))
	}
	c.breaker = gobreaker.NewCircuitBreaker(st)
	return c
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Activity fetches recent trades for leagueID.
func (c *Client) Activity(ctx context.Context, leagueID string) (*Activity, error) {
	if !c.enabled {
		return nil, ErrNotConfigured
	}
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: empty league id", ErrNoData)
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, leagueID)
	})
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordImportRequest(resultLabel(err), latency)
		c.log.Warn(ctx, "league activity import failed",
			logger.String("league_id", leagueID),
			logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrNoData, err)
	}
	metrics.RecordImportRequest("ok", latency)
	return out.(*Activity), nil
}

func (c *Client) fetch(ctx context.Context, leagueID string) (*Activity, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", leagueID).
		Get(activityPath)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	var act Activity
	if err := json.Unmarshal(resp.Body(), &act); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}
	if act.LeagueID == "" {
		act.LeagueID = leagueID
	}
	if act.TotalManagers < 0 {
		act.TotalManagers = 0
	}
	return &act, nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	default:
		return "error"
	}
}
