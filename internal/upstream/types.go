package upstream

// AggsResponse is the upstream aggregate-bars payload for a ticker range
// query. Only the fields the service consumes are decoded.
type AggsResponse struct {
	Ticker       string `json:"ticker"`
	QueryCount   int    `json:"queryCount"`
	ResultsCount int    `json:"resultsCount"`
	Adjusted     bool   `json:"adjusted"`
	Status       string `json:"status"`
	Results      []Agg  `json:"results"`
}

// Agg is a single aggregate bar in the provider's wire format: single-letter
// field names, millisecond epoch timestamps.
type Agg struct {
	Timestamp    int64   `json:"t"` // start of the bar, Unix ms
	Open         float64 `json:"o"`
	High         float64 `json:"h"`
	Low          float64 `json:"l"`
	Close        float64 `json:"c"`
	Volume       float64 `json:"v"`
	VWAP         float64 `json:"vw"`
	Transactions int64   `json:"n"`
}
