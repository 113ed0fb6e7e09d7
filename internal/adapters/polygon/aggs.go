package polygon

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

const dateLayout = "2006-01-02"

// DailyBars devuelve las velas diarias del ticker en [from, to], ascendentes.
func (c *Client) DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]domain.Bar, error) {
	bars, err := c.aggs(ctx, ticker, 1, "day", from, to)
	if err != nil {
		return nil, fmt.Errorf("polygon.DailyBars %s: %w", ticker, err)
	}
	return bars, nil
}

// IntradayBars devuelve las velas intradía (resolución intradayMinutes)
// de un único día de mercado. Un día sin datos devuelve slice vacío, no error:
// para contratos ilíquidos es un resultado normal, no una falla.
func (c *Client) IntradayBars(ctx context.Context, ticker string, date time.Time) ([]domain.Bar, error) {
	bars, err := c.aggs(ctx, ticker, c.intradayMinutes, "minute", date, date)
	if err != nil {
		return nil, fmt.Errorf("polygon.IntradayBars %s %s: %w", ticker, date.Format(dateLayout), err)
	}
	return bars, nil
}

// aggs hace el GET de agregados y mapea los resultados a velas de dominio.
func (c *Client) aggs(ctx context.Context, ticker string, multiplier int, timespan string, from, to time.Time) ([]domain.Bar, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		url.PathEscape(ticker), multiplier, timespan,
		from.Format(dateLayout), to.Format(dateLayout))

	query := url.Values{}
	query.Set("adjusted", "true")
	query.Set("sort", "asc")
	query.Set("limit", "50000")

	var resp aggsResponse
	if err := c.get(ctx, c.aggsLimiter, path, query, &resp); err != nil {
		return nil, err
	}
	return mapBars(resp.Results), nil
}
