package model

// Asset is one tracked instrument from the configuration.
type Asset struct {
	Name           string `yaml:"name"`             // display name, e.g. "🏆 黄金 (Gold)"
	SpotSymbol     string `yaml:"spot"`             // futures/index ticker used for price and verification
	OptionSymbol   string `yaml:"option_symbol"`    // ETF ticker whose option chain yields IV, empty to skip
	VolIndexSymbol string `yaml:"vol_index_symbol"` // volatility index fallback (e.g. ^VIX), empty if none
}

// HasIVSource reports whether any route to an implied volatility exists.
func (a Asset) HasIVSource() bool {
	return a.OptionSymbol != "" || a.VolIndexSymbol != ""
}
