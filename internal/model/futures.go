package model

// Exchange describes one of the supported domestic futures exchanges.
type Exchange struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SymbolMapping maps a product display name to the upstream node mark used
// when requesting that product's contracts. Unique per (exchange_code, mark).
type SymbolMapping struct {
	ExchangeCode string `json:"exchange_code"`
	ExchangeName string `json:"exchange_name"`
	Symbol       string `json:"symbol"`
	Mark         string `json:"mark"`
}

// FuturesQuote is a normalized realtime quote for one futures contract.
type FuturesQuote struct {
	Symbol         string   `json:"symbol"`
	Name           string   `json:"name"`
	CurrentPrice   float64  `json:"current_price"`
	Change         float64  `json:"change"`
	ChangePercent  float64  `json:"change_percent"`
	Volume         uint64   `json:"volume"`
	Open           float64  `json:"open"`
	High           float64  `json:"high"`
	Low            float64  `json:"low"`
	Settlement     *float64 `json:"settlement"`
	PrevSettlement *float64 `json:"prev_settlement"`
	OpenInterest   *uint64  `json:"open_interest"`
	UpdatedAt      string   `json:"updated_at"`
}

// FuturesBar is one daily or minute K-line bar. Date carries YYYY-MM-DD for
// daily bars and "YYYY-MM-DD HH:MM:SS" for minute bars.
type FuturesBar struct {
	Symbol       string   `json:"symbol"`
	Date         string   `json:"date"`
	Open         float64  `json:"open"`
	High         float64  `json:"high"`
	Low          float64  `json:"low"`
	Close        float64  `json:"close"`
	Volume       uint64   `json:"volume"`
	Settlement   *float64 `json:"settlement"`
	OpenInterest *uint64  `json:"open_interest"`
}

// ContractDetail holds the trading rules scraped from a contract's quote page.
type ContractDetail struct {
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	Exchange        string `json:"exchange"`
	TradingUnit     string `json:"trading_unit"`
	QuoteUnit       string `json:"quote_unit"`
	MinPriceChange  string `json:"min_price_change"`
	PriceLimit      string `json:"price_limit"`
	ContractMonths  string `json:"contract_months"`
	TradingHours    string `json:"trading_hours"`
	LastTradingDay  string `json:"last_trading_day"`
	LastDeliveryDay string `json:"last_delivery_day"`
	DeliveryGrade   string `json:"delivery_grade"`
	Margin          string `json:"margin"`
	DeliveryMethod  string `json:"delivery_method"`
}

// MainContract identifies one main-continuous contract (e.g. RB0).
type MainContract struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// MainContractBar is one daily point of a main-continuous synthetic series.
type MainContractBar struct {
	Date   string   `json:"date"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume uint64   `json:"volume"`
	Hold   uint64   `json:"hold"`
	Settle *float64 `json:"settle"`
}

// HoldPositionEntry is one broker's row of a daily position ranking table.
type HoldPositionEntry struct {
	Rank    int    `json:"rank"`
	Company string `json:"company"`
	Value   int64  `json:"value"`
	Change  int64  `json:"change"`
}

// FeeRecord is one contract row of the openctp fee reference table. Values
// are kept as published, without numeric reinterpretation.
type FeeRecord struct {
	Exchange          string `json:"exchange"`
	ContractCode      string `json:"contract_code"`
	ContractName      string `json:"contract_name"`
	ProductCode       string `json:"product_code"`
	ProductName       string `json:"product_name"`
	ContractSize      string `json:"contract_size"`
	PriceTick         string `json:"price_tick"`
	OpenFeeRate       string `json:"open_fee_rate"`
	OpenFee           string `json:"open_fee"`
	CloseFeeRate      string `json:"close_fee_rate"`
	CloseFee          string `json:"close_fee"`
	CloseTodayFeeRate string `json:"close_today_fee_rate"`
	CloseTodayFee     string `json:"close_today_fee"`
	LongMarginRate    string `json:"long_margin_rate"`
	ShortMarginRate   string `json:"short_margin_rate"`
	UpdatedAt         string `json:"updated_at"`
}

// CommissionRecord is one contract row of the 9qihuo commission table.
// Ratio fields hold the N of "万分之N" divided by 10000; yuan fields hold a
// flat per-lot amount.
type CommissionRecord struct {
	Exchange               string   `json:"exchange"`
	ContractName           string   `json:"contract_name"`
	ContractCode           string   `json:"contract_code"`
	CurrentPrice           *float64 `json:"current_price"`
	LimitUp                *float64 `json:"limit_up"`
	LimitDown              *float64 `json:"limit_down"`
	MarginBuy              *float64 `json:"margin_buy"`
	MarginSell             *float64 `json:"margin_sell"`
	MarginPerLot           *float64 `json:"margin_per_lot"`
	FeeOpenRatio           *float64 `json:"fee_open_ratio"`
	FeeOpenYuan            *float64 `json:"fee_open_yuan"`
	FeeCloseYesterdayRatio *float64 `json:"fee_close_yesterday_ratio"`
	FeeCloseYesterdayYuan  *float64 `json:"fee_close_yesterday_yuan"`
	FeeCloseTodayRatio     *float64 `json:"fee_close_today_ratio"`
	FeeCloseTodayYuan      *float64 `json:"fee_close_today_yuan"`
	ProfitPerTick          *float64 `json:"profit_per_tick"`
	FeeTotal               *float64 `json:"fee_total"`
	NetProfitPerTick       *float64 `json:"net_profit_per_tick"`
	Remark                 *string  `json:"remark"`
}

// RuleRecord is one product row of the exchange trading-parameter calendar.
type RuleRecord struct {
	Exchange     string   `json:"exchange"`
	Product      string   `json:"product"`
	Code         string   `json:"code"`
	MarginRate   *float64 `json:"margin_rate"`
	PriceLimit   *float64 `json:"price_limit"`
	ContractSize *float64 `json:"contract_size"`
	PriceTick    *float64 `json:"price_tick"`
	MaxOrderSize *uint64  `json:"max_order_size"`
	SpecialNote  *string  `json:"special_note"`
	Remark       *string  `json:"remark"`
}

// InventoryProduct maps a 99qihuo product id to its name and code.
type InventoryProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
}

// InventoryRecord is one day of a product's registered inventory series.
type InventoryRecord struct {
	Date       string   `json:"date"`
	ClosePrice *float64 `json:"close_price"`
	Inventory  *float64 `json:"inventory"`
}

// SpotPriceRecord relates a commodity's spot price to its near and dominant
// contracts on one date. Basis is the futures price minus the spot price;
// the rate is futures/spot - 1.
type SpotPriceRecord struct {
	Date                  string  `json:"date"`
	Symbol                string  `json:"symbol"`
	SpotPrice             float64 `json:"spot_price"`
	NearContract          string  `json:"near_contract"`
	NearContractPrice     float64 `json:"near_contract_price"`
	DominantContract      string  `json:"dominant_contract"`
	DominantContractPrice float64 `json:"dominant_contract_price"`
	NearBasis             float64 `json:"near_basis"`
	DomBasis              float64 `json:"dom_basis"`
	NearBasisRate         float64 `json:"near_basis_rate"`
	DomBasisRate          float64 `json:"dom_basis_rate"`
}

// SpotPriceSummary is the historical spot/basis table variant that carries
// 180-day basis statistics.
type SpotPriceSummary struct {
	Commodity        string   `json:"commodity"`
	SpotPrice        float64  `json:"spot_price"`
	DominantContract string   `json:"dominant_contract"`
	DominantPrice    float64  `json:"dominant_price"`
	Basis            float64  `json:"basis"`
	BasisRate        float64  `json:"basis_rate"`
	Basis180dHigh    *float64 `json:"basis_180d_high"`
	Basis180dLow     *float64 `json:"basis_180d_low"`
	Basis180dAvg     *float64 `json:"basis_180d_avg"`
}

// ForeignSymbol is one entry of the fixed foreign futures product table.
type ForeignSymbol struct {
	Symbol string `json:"symbol"`
	Code   string `json:"code"`
}

// ForeignBar is one daily bar of a foreign futures contract.
type ForeignBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume uint64  `json:"volume"`
}

// ForeignDetail holds the name/value rows of a foreign contract's detail page.
type ForeignDetail struct {
	Items []ForeignDetailItem `json:"items"`
}

// ForeignDetailItem is one labeled value on a foreign contract detail page.
type ForeignDetailItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
