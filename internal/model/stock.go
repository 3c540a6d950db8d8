package model

// StockQuote is a normalized realtime quote for one A-share stock.
type StockQuote struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	CurrentPrice  float64  `json:"current_price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"change_percent"`
	Volume        uint64   `json:"volume"`
	MarketCap     *float64 `json:"market_cap"`
	UpdatedAt     string   `json:"updated_at"`
}

// StockBar is one daily K-line bar for a stock.
type StockBar struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume uint64  `json:"volume"`
}
