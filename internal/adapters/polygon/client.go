package polygon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

const (
	defaultBaseURL = "https://api.polygon.io"

	// Rate limits conservadores por clase de endpoint. Los agregados se
	// consultan una vez por contrato candidato, así que son los que más
	// presión meten al proveedor.
	aggsRatePerSec      = 10
	referenceRatePerSec = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client de Polygon.io con rate limiting y retries.
// Implementa ports.MarketData y ports.ContractReference.
type Client struct {
	http             *http.Client
	baseURL          string
	apiKey           string
	aggsLimiter      *rate.Limiter
	referenceLimiter *rate.Limiter
	intradayMinutes  int
}

// NewClient crea un Client con el base URL y la API key dados.
// Si baseURL está vacío usa el URL de producción. intradayMinutes controla
// la resolución de las velas intradía (30 por defecto, compatible con el
// plan Starter del proveedor).
func NewClient(baseURL, apiKey string, intradayMinutes int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if intradayMinutes <= 0 {
		intradayMinutes = 30
	}
	return &Client{
		http:             &http.Client{Timeout: 10 * time.Second},
		baseURL:          baseURL,
		apiKey:           apiKey,
		aggsLimiter:      rate.NewLimiter(aggsRatePerSec, 5),
		referenceLimiter: rate.NewLimiter(referenceRatePerSec, 2),
		intradayMinutes:  intradayMinutes,
	}
}

// get hace un GET con rate limiting, retries y decode(JSON) en out.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, path string, query url.Values, out any) error {
	q := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if c.apiKey != "" {
		q.Set("apiKey", c.apiKey)
	}
	fullURL := c.baseURL + path + "?" + q.Encode()

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("polygon: %s: %w", path, domain.ErrRateLimited)
			}
			slog.Warn("rate limited by polygon", "path", path, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue

		case resp.StatusCode >= 500:
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("polygon: server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue

		case resp.StatusCode >= 400:
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("polygon: client error %d: %s", resp.StatusCode, string(body))
		}

		err = decodeJSON(resp.Body, out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("polygon: %s: %w: %v", path, domain.ErrMalformedResponse, err)
		}
		return nil
	}
	return fmt.Errorf("polygon: exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// IsRetryable devuelve true si el error amerita reintentar a nivel de batch.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}
