package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Source provides the day's exchange rates against the base currency,
// normalized to base units per 1 unit of each currency.
type Source interface {
	FetchDaily(ctx context.Context) (map[Currency]float64, error)
}

// feedPayload mirrors the daily feed: entries keyed by currency code, each
// with a Value (rate to the base currency) and a Nominal (unit size).
type feedPayload struct {
	Date   string `json:"Date"`
	Valute map[string]struct {
		CharCode string  `json:"CharCode"`
		Nominal  float64 `json:"Nominal"`
		Value    float64 `json:"Value"`
	} `json:"Valute"`
}

// HTTPSource fetches the daily rates feed over HTTP.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource builds a feed client with the given request timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// FetchDaily downloads and normalizes the feed: rate = value / nominal.
func (s *HTTPSource) FetchDaily(ctx context.Context) (map[Currency]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("fx: build feed request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fx: fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fx: feed returned status %d", resp.StatusCode)
	}

	var payload feedPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fx: decode feed: %w", err)
	}
	if len(payload.Valute) == 0 {
		return nil, fmt.Errorf("fx: feed payload has no rates")
	}

	rates := make(map[Currency]float64, len(payload.Valute))
	for _, v := range payload.Valute {
		if v.Nominal <= 0 || v.Value <= 0 {
			continue
		}
		rates[Currency(v.CharCode)] = v.Value / v.Nominal
	}
	return rates, nil
}
