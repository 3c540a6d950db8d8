package model

// Response is the envelope every endpoint returns. Exactly one of Data and
// Error is populated: success=false implies data=null and a non-empty error
// message, success=true implies error=null.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *string     `json:"error"`
}

// OK wraps data in a successful envelope.
func OK(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// Fail wraps an error message in a failed envelope.
func Fail(message string) Response {
	return Response{Success: false, Error: &message}
}

// BatchResult is one slot of a batch quote response. The slice returned for a
// batch request preserves input order; a failed symbol occupies its slot with
// Success=false and the failure reason instead of aborting the batch.
type BatchResult struct {
	Symbol  string        `json:"symbol"`
	Success bool          `json:"success"`
	Data    *FuturesQuote `json:"data"`
	Error   *string       `json:"error"`
}

// BatchOK creates a successful batch slot.
func BatchOK(symbol string, quote *FuturesQuote) BatchResult {
	return BatchResult{Symbol: symbol, Success: true, Data: quote}
}

// BatchFail creates a failed batch slot carrying the failure reason.
func BatchFail(symbol string, err error) BatchResult {
	message := err.Error()
	return BatchResult{Symbol: symbol, Success: false, Error: &message}
}
