package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/errors"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/ingest"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/resilience"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

const (
	defaultTable    = "qb_seasons"
	defaultPageSize = 1000
)

// SupabaseAdapter reads player seasons from a Supabase project through its
// PostgREST endpoint.
type SupabaseAdapter struct {
	baseURL  string
	apiKey   string
	table    string
	pageSize int
	client   *resilience.HTTPClient
}

// SupabaseOption customises a SupabaseAdapter.
type SupabaseOption func(*SupabaseAdapter)

// WithTable reads from a table other than qb_seasons.
func WithTable(table string) SupabaseOption {
	return func(a *SupabaseAdapter) { a.table = table }
}

// WithPageSize sets the PostgREST page size.
func WithPageSize(n int) SupabaseOption {
	return func(a *SupabaseAdapter) {
		if n > 0 {
			a.pageSize = n
		}
	}
}

// WithClientConfig replaces the retry and circuit breaker settings.
func WithClientConfig(cfg resilience.ClientConfig) SupabaseOption {
	return func(a *SupabaseAdapter) { a.client = resilience.NewHTTPClient(cfg) }
}

// NewSupabaseAdapter creates an adapter for the project at baseURL.
func NewSupabaseAdapter(baseURL, apiKey string, opts ...SupabaseOption) *SupabaseAdapter {
	a := &SupabaseAdapter{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		table:    defaultTable,
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.client == nil {
		a.client = resilience.NewHTTPClient(resilience.DefaultClientConfig(a.Name()))
	}
	return a
}

// Name identifies the source in logs.
func (a *SupabaseAdapter) Name() string {
	return "supabase"
}

// LoadPlayers pages through the seasons table and assembles validated players.
func (a *SupabaseAdapter) LoadPlayers(ctx context.Context) ([]types.Player, error) {
	if a.baseURL == "" {
		return nil, errors.NewConfigurationError("SUPABASE_URL is not set", nil)
	}

	var rows []ingest.Row
	for offset := 0; ; offset += a.pageSize {
		page, err := a.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page...)
		if len(page) < a.pageSize {
			break
		}
	}

	for i := range rows {
		rows[i].Line = i + 1
		rows[i].Team = strings.ToUpper(strings.TrimSpace(rows[i].Team))
	}

	if err := ingest.ValidateRows(rows); err != nil {
		return nil, err
	}
	players := ingest.Merge(rows)
	if err := ingest.Validate(players); err != nil {
		return nil, err
	}
	return players, nil
}

func (a *SupabaseAdapter) fetchPage(ctx context.Context, offset int) ([]ingest.Row, error) {
	body, err := a.client.Get(ctx, a.pageURL(offset), a.headers())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", a.table, err)
	}

	var page []ingest.Row
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, errors.NewExternalAPIError(a.Name(), fmt.Errorf("decode %s page: %w", a.table, err))
	}
	return page, nil
}

func (a *SupabaseAdapter) pageURL(offset int) string {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "player_id.asc,year.asc,team.asc")
	q.Set("limit", strconv.Itoa(a.pageSize))
	q.Set("offset", strconv.Itoa(offset))
	return fmt.Sprintf("%s/rest/v1/%s?%s", a.baseURL, url.PathEscape(a.table), q.Encode())
}

func (a *SupabaseAdapter) headers() map[string]string {
	headers := map[string]string{
		"Accept":     "application/json",
		"User-Agent": "qb-excellence-index/1.0",
	}
	if a.apiKey != "" {
		headers["apikey"] = a.apiKey
		headers["Authorization"] = "Bearer " + a.apiKey
	}
	return headers
}

// GetStats returns request statistics for the underlying client.
func (a *SupabaseAdapter) GetStats() map[string]interface{} {
	return a.client.GetStats()
}

// Close releases pooled connections.
func (a *SupabaseAdapter) Close() error {
	return a.client.Close()
}
