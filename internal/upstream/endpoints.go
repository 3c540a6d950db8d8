package upstream

// Endpoints holds the base URLs of every upstream host. Adapters receive the
// table at construction so tests can point them at local servers.
type Endpoints struct {
	SinaRealtime     string
	SinaFuturesList  string
	SinaSymbolScript string
	SinaDailyKline   string
	SinaMinuteKline  string
	SinaJSONPBase    string
	SinaHoldPos      string
	SinaQuotePages   string
	OpenctpFees      string
	QihuoCommission  string
	GtjaCalendar     string
	Qh99Inventory    string
	SpotPrice        string
	SpotPriceSummary string
	SinaStockKline   string
	SinaStockList    string
}

// DefaultEndpoints returns the production upstream hosts.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		SinaRealtime:     sinaRealtimeAPI,
		SinaFuturesList:  sinaListAPI,
		SinaSymbolScript: sinaSymbolScriptURL,
		SinaDailyKline:   sinaDailyKlineAPI,
		SinaMinuteKline:  sinaMinuteKlineAPI,
		SinaJSONPBase:    sinaJSONPBase,
		SinaHoldPos:      sinaHoldPosAPI,
		SinaQuotePages:   sinaContractDetailURL,
		OpenctpFees:      openctpFeesURL,
		QihuoCommission:  qihuoCommURL,
		GtjaCalendar:     gtjaCalendarURL,
		Qh99Inventory:    qh99StockURL,
		SpotPrice:        spotPriceURL,
		SpotPriceSummary: spotPricePreviousURL,
		SinaStockKline:   sinaStockKlineAPI,
		SinaStockList:    sinaStockListAPI,
	}
}
