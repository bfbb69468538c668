package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServer returns a YahooProvider pointed at a local test server.
func setupTestServer(handler http.Handler) (*YahooProvider, *httptest.Server) {
	server := httptest.NewServer(handler)
	p := NewYahooProvider(YahooOptions{BaseURL: server.URL, RequestsPerSec: 1000, Burst: 1000})
	return p, server
}

func chartBody(timestamps []int64, highs, lows, closes []string) string {
	ts := ""
	for i, t := range timestamps {
		if i > 0 {
			ts += ","
		}
		ts += fmt.Sprintf("%d", t)
	}
	join := func(vals []string) string {
		out := ""
		for i, v := range vals {
			if i > 0 {
				out += ","
			}
			out += v
		}
		return out
	}
	return fmt.Sprintf(`{"chart":{"result":[{"timestamp":[%s],
		"indicators":{"quote":[{"high":[%s],"low":[%s],"close":[%s]}]}}],"error":null}}`,
		ts, join(highs), join(lows), join(closes))
}

func TestGetQuote(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/GC=F", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody(
			[]int64{1748846400}, []string{"2012.5"}, []string{"1990.25"}, []string{"2001.75"})))
	})
	p, server := setupTestServer(handler)
	defer server.Close()

	q, err := p.GetQuote(context.Background(), "GC=F")
	require.NoError(t, err)
	assert.Equal(t, 2001.75, q.Price)
	assert.Equal(t, "GC=F", q.Symbol)
}

func TestGetQuoteNoData(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":{"code":"Not Found","description":"No data found"}}}`))
	})
	p, server := setupTestServer(handler)
	defer server.Close()

	_, err := p.GetQuote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGetQuoteHTTPError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	p, server := setupTestServer(handler)
	defer server.Close()

	_, err := p.GetQuote(context.Background(), "GC=F")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGetATMImpliedVol(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/options/GLD", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"optionChain":{"result":[{
			"quote":{"regularMarketPrice":189.2},
			"options":[{"expirationDate":1750377600,"calls":[
				{"strike":185,"impliedVolatility":0.22},
				{"strike":190,"impliedVolatility":0.20},
				{"strike":195,"impliedVolatility":0.19}
			]}]}],"error":null}}`))
	})
	p, server := setupTestServer(handler)
	defer server.Close()

	iv, expiry, err := p.GetATMImpliedVol(context.Background(), "GLD")
	require.NoError(t, err)
	assert.Equal(t, 0.20, iv) // 190 is nearest to 189.2
	assert.Equal(t, "2025-06-20", expiry)
}

func TestGetATMImpliedVolEmptyChain(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"optionChain":{"result":[{"quote":{"regularMarketPrice":25.1},"options":[]}],"error":null}}`))
	})
	p, server := setupTestServer(handler)
	defer server.Close()

	_, _, err := p.GetATMImpliedVol(context.Background(), "UNG")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGetVolIndexLevel(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^VIX", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody(
			[]int64{1748846400}, []string{"21.0"}, []string{"19.5"}, []string{"20.5"})))
	})
	p, server := setupTestServer(handler)
	defer server.Close()

	level, err := p.GetVolIndexLevel(context.Background(), "^VIX")
	require.NoError(t, err)
	assert.Equal(t, 20.5, level)
}

func TestGetDailyRangeHistorySkipsNullBars(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// 2025-06-02, 2025-06-03 (holiday nulls), 2025-06-04
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody(
			[]int64{1748822400, 1748908800, 1748995200},
			[]string{"2015", "null", "2030"},
			[]string{"1985", "null", "1995"},
			[]string{"2001", "null", "2020"})))
	})
	p, server := setupTestServer(handler)
	defer server.Close()

	hist, err := p.GetDailyRangeHistory(context.Background(), "GC=F", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)

	day, ok := hist["2025-06-02"]
	require.True(t, ok)
	assert.Equal(t, 2015.0, day.High)
	assert.Equal(t, 1985.0, day.Low)

	_, ok = hist["2025-06-03"]
	assert.False(t, ok)
}
