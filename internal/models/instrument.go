package models

// AssetClass classifies an instrument.
type AssetClass string

const (
	AssetEquity         AssetClass = "EQUITY"
	AssetBond           AssetClass = "BOND"
	AssetETF            AssetClass = "ETF"
	AssetCryptocurrency AssetClass = "CRYPTOCURRENCY"
	AssetCommodity      AssetClass = "COMMODITY"
)

var validAssetClasses = map[AssetClass]bool{
	AssetEquity:         true,
	AssetBond:           true,
	AssetETF:            true,
	AssetCryptocurrency: true,
	AssetCommodity:      true,
}

// ValidAssetClass returns true if c is a known asset class.
func ValidAssetClass(c AssetClass) bool {
	return validAssetClasses[c]
}

// Instrument is a tradable security identified by its unique name.
type Instrument struct {
	Name          string     `json:"name"`
	Currency      string     `json:"currency"`
	AssetClass    AssetClass `json:"asset_class"`
	DisplayTicker string     `json:"display_ticker"`
	Deleted       bool       `json:"deleted"`
}
