package polygon

import (
	"encoding/json"
	"io"
)

// DTOs privados del API de Polygon. Se mapean a tipos de dominio en mapping.go.

// aggsResponse es la respuesta de GET /v2/aggs/ticker/{t}/range/...
type aggsResponse struct {
	Ticker       string      `json:"ticker"`
	Status       string      `json:"status"`
	ResultsCount int         `json:"resultsCount"`
	Results      []aggResult `json:"results"`
}

type aggResult struct {
	Timestamp int64   `json:"t"` // epoch millis
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

// contractsResponse es la respuesta de GET /v3/reference/options/contracts.
type contractsResponse struct {
	Status  string           `json:"status"`
	Results []contractResult `json:"results"`
	NextURL string           `json:"next_url"`
}

type contractResult struct {
	Ticker           string  `json:"ticker"`
	UnderlyingTicker string  `json:"underlying_ticker"`
	ContractType     string  `json:"contract_type"`
	StrikePrice      float64 `json:"strike_price"`
	ExpirationDate   string  `json:"expiration_date"` // YYYY-MM-DD
}

func decodeJSON(r io.Reader, out any) error {
	return json.NewDecoder(r).Decode(out)
}
