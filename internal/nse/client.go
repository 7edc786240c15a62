// Package nse is the HTTP client for NSE India's public market-data
// endpoints. NSE fronts these with anti-bot checks, so every session must
// first visit the homepage with browser-like headers to collect cookies
// before the JSON endpoints respond.
package nse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"niftyscan/internal/config"
)

// indexName is the aggregate row NSE includes alongside the constituents.
const indexName = "NIFTY 50"

// settleDelay gives NSE's edge time to register fresh session cookies.
const settleDelay = time.Second

// StatusError reports a non-200 response from NSE.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nse: unexpected status %d from %s", e.Code, e.URL)
}

// Client talks to NSE with a cookie-backed session, token-bucket rate
// limiting, a circuit breaker and bounded retries.
type Client struct {
	cfg     config.NSEConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger

	now func() time.Time
}

// NewClient builds a client from NSE configuration.
func NewClient(cfg config.NSEConfig, log zerolog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nse",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Jar:     jar,
			Timeout: cfg.RequestTimeout(),
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		breaker: breaker,
		log:     log,
		now:     time.Now,
	}, nil
}

// Bootstrap visits the NSE homepage to acquire session cookies. It must be
// called before the JSON endpoints and again whenever NSE rejects the
// session.
func (c *Client) Bootstrap(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("build bootstrap request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bootstrap session: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, URL: c.cfg.BaseURL}
	}

	c.log.Debug().Msg("NSE session bootstrapped")

	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// FetchIndex returns the NIFTY 50 constituents with live prices. The
// aggregate index row is filtered out.
func (c *Client) FetchIndex(ctx context.Context) ([]IndexQuote, error) {
	var payload indexResponse
	if err := c.getJSON(ctx, c.cfg.BaseURL+c.cfg.IndexEndpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}

	at := c.now()
	quotes := make([]IndexQuote, 0, len(payload.Data))
	for _, row := range payload.Data {
		if row.Symbol == "" || row.Symbol == indexName {
			continue
		}
		quotes = append(quotes, IndexQuote{
			Symbol:      row.Symbol,
			ISIN:        row.Meta.ISIN,
			CompanyName: row.Meta.CompanyName,
			LastPrice:   row.LastPrice,
			Change:      row.Change,
			PctChange:   row.PChange,
			Volume:      row.TotalTradedVolume,
			At:          at,
		})
	}

	c.log.Debug().Int("quotes", len(quotes)).Msg("Fetched index constituents")
	return quotes, nil
}

// FetchQuote returns the live quote for a single symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (EquityQuote, error) {
	endpoint := c.cfg.BaseURL + c.cfg.QuoteEndpoint + url.QueryEscape(symbol)

	var payload quoteResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return EquityQuote{}, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}

	return EquityQuote{
		Symbol:    symbol,
		LastPrice: payload.PriceInfo.LastPrice,
		Volume:    payload.PreOpenMarket.TotalTradedVolume,
		At:        c.now(),
	}, nil
}

// getJSON performs a rate-limited, breaker-guarded GET with bounded
// retries. A 401/403 triggers a session re-bootstrap before the next
// attempt, since NSE expires cookies aggressively.
func (c *Client) getJSON(ctx context.Context, endpoint string, v interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.cfg.RetryDelay()):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.doGet(ctx, endpoint, v)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) &&
			(statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden) {
			c.log.Warn().Int("status", statusErr.Code).Msg("NSE session rejected, re-bootstrapping")
			if berr := c.Bootstrap(ctx); berr != nil {
				c.log.Warn().Err(berr).Msg("Session re-bootstrap failed")
			}
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Debug().Err(err).Int("attempt", attempt+1).Str("url", endpoint).Msg("NSE request failed")
	}

	return lastErr
}

func (c *Client) doGet(ctx context.Context, endpoint string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode, URL: endpoint}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	if c.cfg.Referer != "" {
		req.Header.Set("Referer", c.cfg.Referer)
	}
}
