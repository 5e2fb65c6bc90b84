package model

import "github.com/shopspring/decimal"

// QuoteLineRequest is one cart line to price
type QuoteLineRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

// QuoteRequest is the body of POST /prices/quote
type QuoteRequest struct {
	Lines []QuoteLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// QuoteLine is the priced form of a cart line
type QuoteLine struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	RegularPrice  decimal.Decimal `json:"regular_price"`
	LineTotal     decimal.Decimal `json:"line_total"`
	Discounted    bool            `json:"discounted"`
	OnSale        bool            `json:"on_sale"`
	QuantityBreak bool            `json:"quantity_break"`
	Scope         string          `json:"scope"`
}

// Quote is the priced cart of one actor
type Quote struct {
	Role  string          `json:"role"`
	Lines []QuoteLine     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}
