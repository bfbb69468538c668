package marketdata

import (
	"context"
	"time"

	"VolSentinel/internal/model"
)

// Mock returns controllable fixed data for development and testing.
// Unset symbols yield ErrUnavailable, like a real source with no data.
type Mock struct {
	Quotes    map[string]float64
	IVs       map[string]float64 // optionSymbol -> annualized IV
	VolLevels map[string]float64 // indexSymbol -> raw index level
	Histories map[string]map[string]model.DailyRange
	Errs      map[string]error // per-symbol forced failure, any method
}

func NewMock() *Mock {
	return &Mock{
		Quotes:    make(map[string]float64),
		IVs:       make(map[string]float64),
		VolLevels: make(map[string]float64),
		Histories: make(map[string]map[string]model.DailyRange),
		Errs:      make(map[string]error),
	}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) GetQuote(_ context.Context, symbol string) (model.Quote, error) {
	if err := m.Errs[symbol]; err != nil {
		return model.Quote{}, err
	}
	price, ok := m.Quotes[symbol]
	if !ok {
		return model.Quote{}, ErrUnavailable
	}
	return model.Quote{Symbol: symbol, Price: price, Time: time.Now()}, nil
}

func (m *Mock) GetATMImpliedVol(_ context.Context, optionSymbol string) (float64, string, error) {
	if err := m.Errs[optionSymbol]; err != nil {
		return 0, "", err
	}
	iv, ok := m.IVs[optionSymbol]
	if !ok {
		return 0, "", ErrUnavailable
	}
	return iv, "2025-06-20", nil
}

func (m *Mock) GetVolIndexLevel(_ context.Context, indexSymbol string) (float64, error) {
	if err := m.Errs[indexSymbol]; err != nil {
		return 0, err
	}
	level, ok := m.VolLevels[indexSymbol]
	if !ok {
		return 0, ErrUnavailable
	}
	return level, nil
}

func (m *Mock) GetDailyRangeHistory(_ context.Context, symbol string, _ int) (map[string]model.DailyRange, error) {
	if err := m.Errs[symbol]; err != nil {
		return nil, err
	}
	hist, ok := m.Histories[symbol]
	if !ok {
		return nil, ErrUnavailable
	}
	return hist, nil
}
