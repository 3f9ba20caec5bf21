// Package sportapi provides the HTTP client for the SportsAPI football
// endpoints served through RapidAPI.
//
// Requests carry the X-RapidAPI-Key / X-RapidAPI-Host headers, wait on a
// token-bucket limiter, and pass through a circuit breaker so a failing
// upstream is shed quickly instead of piling up timeouts.
package sportapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/albapepper/footiq/internal/provider"
	"github.com/albapepper/footiq/internal/telemetry"
)

// DefaultBaseURL is the public RapidAPI endpoint.
const DefaultBaseURL = "https://sportapi7.p.rapidapi.com/api/v1"

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("sportapi temporarily unavailable")

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sportapi %s returned %d: %s", e.Path, e.Status, e.Body)
}

// Config configures a Client.
type Config struct {
	BaseURL           string
	APIKey            string
	Host              string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client is the HTTP client for SportsAPI endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	host       string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	metrics    *telemetry.Metrics
	logger     *slog.Logger
}

// NewClient creates a rate-limited client. metrics may be nil.
func NewClient(cfg Config, metrics *telemetry.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}

	rps := float64(cfg.RequestsPerMinute) / 60.0

	st := gobreaker.Settings{
		Name:     "sportapi",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors are our fault, not the upstream's.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Status < 500 && se.Status != http.StatusTooManyRequests
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		host:       cfg.Host,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		breaker:    gobreaker.NewCircuitBreaker(st),
		metrics:    metrics,
		logger:     logger,
	}
}

// AthleteGames fetches the last n games for an athlete.
func (c *Client) AthleteGames(ctx context.Context, athleteID int64, lastN int) (any, error) {
	path := "/athletes/" + strconv.FormatInt(athleteID, 10) + "/games"
	params := url.Values{"limit": {strconv.Itoa(lastN)}}
	return c.get(ctx, "athlete_games", path, params)
}

// GameLineup fetches one athlete's lineup entry for a game.
func (c *Client) GameLineup(ctx context.Context, athleteID, gameID int64) (any, error) {
	path := "/games/" + strconv.FormatInt(gameID, 10) + "/lineups"
	params := url.Values{"athlete_id": {strconv.FormatInt(athleteID, 10)}}
	return c.get(ctx, "game_lineup", path, params)
}

// get performs a rate-limited, breaker-guarded GET and decodes the body.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (any, error) {
		return c.do(ctx, path, params)
	})
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.Upstream(endpoint, "open", elapsed)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case err != nil:
		c.metrics.Upstream(endpoint, "error", elapsed)
		c.logger.Warn("sportapi request failed", "path", path, "error", err, "elapsed_ms", elapsed.Milliseconds())
		return nil, err
	}

	c.metrics.Upstream(endpoint, "ok", elapsed)
	c.logger.Debug("sportapi request", "path", path, "elapsed_ms", elapsed.Milliseconds())
	return out, nil
}

func (c *Client) do(ctx context.Context, path string, params url.Values) (any, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Path: path, Status: resp.StatusCode, Body: truncate(body, 200)}
	}

	raw, err := provider.DecodePayload(body)
	if err != nil {
		return nil, fmt.Errorf("sportapi %s: %w", path, err)
	}
	return raw, nil
}

// BreakerState reports the circuit breaker state ("closed", "open", "half-open").
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// truncate returns a truncated string for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
