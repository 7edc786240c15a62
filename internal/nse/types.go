package nse

import "time"

// IndexQuote is one constituent row from the NIFTY 50 index endpoint.
type IndexQuote struct {
	Symbol      string    `json:"symbol"`
	ISIN        string    `json:"isin"`
	CompanyName string    `json:"company_name"`
	LastPrice   float64   `json:"last_price"`
	Change      float64   `json:"change"`
	PctChange   float64   `json:"pct_change"`
	Volume      int64     `json:"volume"`
	At          time.Time `json:"at"`
}

// EquityQuote is a single-stock quote from the quote-equity endpoint.
type EquityQuote struct {
	Symbol    string    `json:"symbol"`
	LastPrice float64   `json:"last_price"`
	Volume    int64     `json:"volume"`
	At        time.Time `json:"at"`
}

// Wire shapes for the NSE JSON payloads. Only the fields the scanner
// consumes are mapped.
type indexResponse struct {
	Data []indexRow `json:"data"`
}

type indexRow struct {
	Symbol            string  `json:"symbol"`
	LastPrice         float64 `json:"lastPrice"`
	Change            float64 `json:"change"`
	PChange           float64 `json:"pChange"`
	TotalTradedVolume int64   `json:"totalTradedVolume"`
	Meta              struct {
		ISIN        string `json:"isin"`
		CompanyName string `json:"companyName"`
	} `json:"meta"`
}

type quoteResponse struct {
	PriceInfo struct {
		LastPrice float64 `json:"lastPrice"`
	} `json:"priceInfo"`
	PreOpenMarket struct {
		TotalTradedVolume int64 `json:"totalTradedVolume"`
	} `json:"preOpenMarket"`
}
