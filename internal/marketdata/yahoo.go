package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"VolSentinel/internal/estimator"
	"VolSentinel/internal/model"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider implements Provider against the Yahoo Finance public
// endpoints (chart API for prices and daily bars, options API for
// implied volatility). Requests are paced by a shared rate limiter so
// a multi-asset run does not trip Yahoo's throttling.
type YahooProvider struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// YahooOptions configures the provider; zero values get defaults.
type YahooOptions struct {
	BaseURL        string
	ProxyURL       string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// NewYahooProvider creates a Yahoo Finance provider.
func NewYahooProvider(opts YahooOptions) *YahooProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultYahooBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 2
	}
	if opts.Burst == 0 {
		opts.Burst = 4
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", "Mozilla/5.0")
	if opts.ProxyURL != "" {
		client.SetProxy(opts.ProxyURL)
	}

	return &YahooProvider{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.Burst),
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

// chartResponse mirrors the Yahoo chart API payload. OHLC arrays carry
// nulls on holidays, hence interface{} elements.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High  []interface{} `json:"high"`
					Low   []interface{} `json:"low"`
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// optionsResponse mirrors the Yahoo options API payload, trimmed to
// the fields the ATM lookup needs.
type optionsResponse struct {
	OptionChain struct {
		Result []struct {
			Quote struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"quote"`
			Options []struct {
				ExpirationDate int64 `json:"expirationDate"`
				Calls          []struct {
					Strike            float64 `json:"strike"`
					ImpliedVolatility float64 `json:"impliedVolatility"`
				} `json:"calls"`
			} `json:"options"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"optionChain"`
}

func toFloat(v interface{}) float64 {
	if n, ok := v.(float64); ok {
		return n
	}
	return 0
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol, rng string) (*chartResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var chart chartResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&chart).
		Get(fmt.Sprintf("/v8/finance/chart/%s?interval=1d&range=%s", url.PathEscape(symbol), rng))
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("yahoo chart %s: status %d: %w", symbol, resp.StatusCode(), ErrUnavailable)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s: %w", symbol, chart.Chart.Error.Description, ErrUnavailable)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: no bars: %w", symbol, ErrUnavailable)
	}
	return &chart, nil
}

func (p *YahooProvider) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	chart, err := p.fetchChart(ctx, symbol, "1d")
	if err != nil {
		return model.Quote{}, err
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	for i := len(result.Timestamp) - 1; i >= 0; i-- {
		if c := toFloat(quote.Close[i]); c > 0 {
			return model.Quote{
				Symbol: symbol,
				Price:  c,
				Time:   time.Unix(result.Timestamp[i], 0),
			}, nil
		}
	}
	return model.Quote{}, fmt.Errorf("yahoo quote %s: only null bars: %w", symbol, ErrUnavailable)
}

func (p *YahooProvider) GetATMImpliedVol(ctx context.Context, optionSymbol string) (float64, string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, "", fmt.Errorf("rate limiter: %w", err)
	}

	var chain optionsResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&chain).
		Get("/v7/finance/options/" + url.PathEscape(optionSymbol))
	if err != nil {
		return 0, "", fmt.Errorf("yahoo options %s: %w", optionSymbol, err)
	}
	if resp.IsError() {
		return 0, "", fmt.Errorf("yahoo options %s: status %d: %w", optionSymbol, resp.StatusCode(), ErrUnavailable)
	}
	if chain.OptionChain.Error != nil {
		return 0, "", fmt.Errorf("yahoo options %s: %s: %w", optionSymbol, chain.OptionChain.Error.Description, ErrUnavailable)
	}
	if len(chain.OptionChain.Result) == 0 || len(chain.OptionChain.Result[0].Options) == 0 {
		return 0, "", fmt.Errorf("yahoo options %s: empty chain: %w", optionSymbol, ErrUnavailable)
	}

	result := chain.OptionChain.Result[0]
	// ATM is located against the option underlying's own price (the
	// ETF), not the asset's spot price.
	underlying := result.Quote.RegularMarketPrice
	if underlying <= 0 {
		return 0, "", fmt.Errorf("yahoo options %s: no underlying price: %w", optionSymbol, ErrUnavailable)
	}

	nearest := result.Options[0]
	contracts := make([]model.OptionContract, 0, len(nearest.Calls))
	for _, c := range nearest.Calls {
		if c.ImpliedVolatility > 0 {
			contracts = append(contracts, model.OptionContract{Strike: c.Strike, ImpliedVol: c.ImpliedVolatility})
		}
	}

	iv, err := estimator.ATMImpliedVol(contracts, underlying)
	if err != nil {
		return 0, "", fmt.Errorf("yahoo options %s: %v: %w", optionSymbol, err, ErrUnavailable)
	}

	expiry := time.Unix(nearest.ExpirationDate, 0).UTC().Format(model.DateLayout)
	log.Debug().Str("symbol", optionSymbol).Str("expiry", expiry).Float64("iv", iv).Msg("atm implied vol")
	return iv, expiry, nil
}

func (p *YahooProvider) GetVolIndexLevel(ctx context.Context, indexSymbol string) (float64, error) {
	q, err := p.GetQuote(ctx, indexSymbol)
	if err != nil {
		return 0, err
	}
	return q.Price, nil
}

func (p *YahooProvider) GetDailyRangeHistory(ctx context.Context, symbol string, days int) (map[string]model.DailyRange, error) {
	rng := "3mo"
	if days <= 5 {
		rng = "5d"
	} else if days <= 30 {
		rng = "1mo"
	}
	chart, err := p.fetchChart(ctx, symbol, rng)
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	ranges := make(map[string]model.DailyRange, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		high := toFloat(quote.High[i])
		low := toFloat(quote.Low[i])
		if high == 0 && low == 0 {
			continue // null bar (holiday)
		}
		date := time.Unix(ts, 0).UTC().Format(model.DateLayout)
		ranges[date] = model.DailyRange{Date: date, High: high, Low: low}
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("yahoo history %s: only null bars: %w", symbol, ErrUnavailable)
	}
	return ranges, nil
}
