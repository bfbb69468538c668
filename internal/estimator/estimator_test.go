package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VolSentinel/internal/model"
)

func TestDailyRange(t *testing.T) {
	testCases := []struct {
		name     string
		price    float64
		iv       float64
		wantLow  float64
		wantHigh float64
	}{
		{name: "rule of 16", price: 2000, iv: 0.16, wantLow: 1980, wantHigh: 2020},
		{name: "vix-like index", price: 5800, iv: 0.20, wantLow: 5727.5, wantHigh: 5872.5},
		{name: "zero vol collapses the band", price: 100, iv: 0, wantLow: 100, wantHigh: 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			low, high, err := DailyRange(tc.price, tc.iv)
			require.NoError(t, err)
			assert.InDelta(t, tc.wantLow, low, 1e-9)
			assert.InDelta(t, tc.wantHigh, high, 1e-9)
		})
	}
}

func TestDailyRangeRejectsBadInput(t *testing.T) {
	_, _, err := DailyRange(0, 0.2)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, _, err = DailyRange(-10, 0.2)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, _, err = DailyRange(100, -0.1)
	assert.ErrorIs(t, err, ErrNegativeIV)
}

func TestATMImpliedVol(t *testing.T) {
	chain := []model.OptionContract{
		{Strike: 180, ImpliedVol: 0.25},
		{Strike: 185, ImpliedVol: 0.22},
		{Strike: 190, ImpliedVol: 0.20},
		{Strike: 195, ImpliedVol: 0.19},
	}

	iv, err := ATMImpliedVol(chain, 189.2)
	require.NoError(t, err)
	assert.Equal(t, 0.20, iv)
}

func TestATMImpliedVolTieGoesToLowerStrike(t *testing.T) {
	// 187.5 is equidistant from 185 and 190; provider order must not matter.
	chain := []model.OptionContract{
		{Strike: 190, ImpliedVol: 0.20},
		{Strike: 185, ImpliedVol: 0.22},
	}

	iv, err := ATMImpliedVol(chain, 187.5)
	require.NoError(t, err)
	assert.Equal(t, 0.22, iv)
}

func TestATMImpliedVolEmptyChain(t *testing.T) {
	_, err := ATMImpliedVol(nil, 100)
	assert.ErrorIs(t, err, ErrNoContracts)
}
