// Package geocode resolves kindergarten names and addresses to coordinates
// through the AMap (高德) geocoding REST API.
package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"

	"github.com/sells-group/kgmap/internal/model"
	"github.com/sells-group/kgmap/internal/resilience"
)

// DefaultBaseURL is the AMap forward geocoding endpoint.
const DefaultBaseURL = "https://restapi.amap.com/v3/geocode/geo"

const defaultTimeout = 10 * time.Second

// Client geocodes a free-text query within a city.
type Client interface {
	Geocode(ctx context.Context, query, city string) (*Result, error)
}

// Result holds the first AMap candidate for a query.
type Result struct {
	Matched          bool
	FormattedAddress string
	Province         string
	City             string
	District         string
	Location         string // "lon,lat"
	Level            string
}

// Projection returns the fields persisted in the cache.
func (r *Result) Projection() model.Geocode {
	return model.Geocode{
		Province: r.Province,
		City:     r.City,
		District: r.District,
		Location: r.Location,
		Level:    r.Level,
	}
}

// Option configures the AMap client.
type Option func(*AMapClient)

// WithBaseURL overrides the geocoding endpoint.
func WithBaseURL(u string) Option {
	return func(c *AMapClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *AMapClient) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request deadline. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(c *AMapClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithGovernor sets the rate governor every attempt passes through.
func WithGovernor(g *Governor) Option {
	return func(c *AMapClient) {
		c.governor = g
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *AMapClient) {
		c.retry = cfg
	}
}

// WithCircuitBreaker sets the breaker guarding the endpoint.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *AMapClient) {
		c.breaker = cb
	}
}

// AMapClient calls the AMap geocoding API. Every HTTP attempt, retries
// included, is gated by the governor; an open breaker holds calls until its
// reset timeout passes.
type AMapClient struct {
	key        string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	http       *resty.Client
	governor   *Governor
	retry      resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
}

// NewAMapClient creates an AMap client for the given API key.
func NewAMapClient(key string, opts ...Option) *AMapClient {
	c := &AMapClient{
		key:      key,
		baseURL:  DefaultBaseURL,
		timeout:  defaultTimeout,
		governor: NewGovernor(DefaultMaxPerSecond, DefaultMinInterval),
		retry:    resilience.DefaultRetryConfig(),
		breaker:  resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient != nil {
		c.http = resty.NewWithClient(c.httpClient)
	} else {
		c.http = resty.New()
	}
	c.http.SetTimeout(c.timeout)
	return c
}

// Geocode queries AMap once per attempt and returns the first candidate.
// Matched is false when AMap answered but found nothing. While the breaker
// is open the call waits for the half-open call instead of failing, so an
// outage pauses a batch rather than emptying it.
func (c *AMapClient) Geocode(ctx context.Context, query, city string) (*Result, error) {
	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("amap", query)
	}

	return resilience.Do(ctx, retry, func(ctx context.Context) (*Result, error) {
		return resilience.CallWait(ctx, c.breaker, func(ctx context.Context) (*Result, error) {
			var res *Result
			err := c.governor.Do(ctx, func(ctx context.Context) error {
				var err error
				res, err = c.request(ctx, query, city)
				return err
			})
			return res, err
		})
	})
}

// amapResponse is the JSON envelope of /v3/geocode/geo.
type amapResponse struct {
	Status   string        `json:"status"`
	Info     string        `json:"info"`
	Infocode string        `json:"infocode"`
	Geocodes []amapGeocode `json:"geocodes"`
}

type amapGeocode struct {
	FormattedAddress flexString `json:"formatted_address"`
	Province         flexString `json:"province"`
	City             flexString `json:"city"`
	District         flexString `json:"district"`
	Location         flexString `json:"location"`
	Level            flexString `json:"level"`
}

func (c *AMapClient) request(ctx context.Context, query, city string) (*Result, error) {
	params := map[string]string{
		"key":     c.key,
		"address": query,
		"output":  "JSON",
	}
	if city != "" {
		params["city"] = city
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(c.baseURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(err, "amap: request")
		}
		return nil, resilience.NewTransientError(eris.Wrap(err, "amap: request"), 0)
	}

	if resp.StatusCode() != http.StatusOK {
		err := eris.Errorf("amap: returned status %d", resp.StatusCode())
		if resilience.IsTransientHTTPStatus(resp.StatusCode()) {
			return nil, resilience.NewTransientError(err, resp.StatusCode())
		}
		return nil, err
	}

	var body amapResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, eris.Wrap(err, "amap: parse response")
	}

	if body.Status != "1" {
		err := eris.Errorf("amap: %s (infocode %s)", body.Info, body.Infocode)
		if isTransientInfocode(body.Infocode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode())
		}
		return nil, err
	}
	if len(body.Geocodes) == 0 {
		return &Result{Matched: false}, nil
	}

	g := body.Geocodes[0]
	return &Result{
		Matched:          true,
		FormattedAddress: string(g.FormattedAddress),
		Province:         string(g.Province),
		City:             string(g.City),
		District:         string(g.District),
		Location:         string(g.Location),
		Level:            string(g.Level),
	}, nil
}

// AMap infocodes that signal throttling or a busy gateway. Daily quota and
// key errors are not retried.
var transientInfocodes = map[string]bool{
	"10004": true, // ACCESS_TOO_FREQUENT
	"10014": true, // QPS_HAS_EXCEEDED_THE_LIMIT
	"10015": true, // GATEWAY_TIMEOUT
	"10016": true, // SERVER_IS_BUSY
	"10019": true, // CUQPS_HAS_EXCEEDED_THE_LIMIT
	"10020": true, // CKQPS_HAS_EXCEEDED_THE_LIMIT
	"10021": true, // CUQPS_HAS_EXCEEDED_THE_LIMIT
}

func isTransientInfocode(code string) bool {
	return transientInfocodes[code]
}

// flexString decodes AMap string fields, which come back as [] when empty.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*f = ""
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	case strings.HasPrefix(trimmed, "["):
		var parts []string
		if err := json.Unmarshal(data, &parts); err != nil {
			*f = ""
			return nil //nolint:nilerr // nested or mixed arrays carry nothing usable
		}
		*f = flexString(strings.Join(parts, ","))
		return nil
	default:
		*f = flexString(trimmed)
		return nil
	}
}
