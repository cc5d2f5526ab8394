package domain

import "time"

// ParsedItem is a single priced line recognized in pasted offer text
type ParsedItem struct {
	RawLine       string  `json:"raw_line"`
	SuggestedName string  `json:"suggested_name"`
	Price         float64 `json:"price"`
}

// ParseResult is the output of the offer parser.
// Header holds banner/validity lines, Items holds priced lines, both in input order.
type ParseResult struct {
	Header []string     `json:"header"`
	Items  []ParsedItem `json:"items"`
}

// NameHint returns the first header line, conventionally used to prefill the campaign name
func (r ParseResult) NameHint() string {
	if len(r.Header) > 0 {
		return r.Header[0]
	}
	return ""
}

// ValidityHint returns the second header line, conventionally used to prefill the validity text
func (r ParseResult) ValidityHint() string {
	if len(r.Header) > 1 {
		return r.Header[1]
	}
	return ""
}

// ParseRequest is the body accepted by the parse and draft endpoints.
// Text is not required here: parsing empty text is valid and yields an empty result.
type ParseRequest struct {
	Text string `json:"text"`
}

// DraftItem is a parsed item plus an optional suggestion of an existing product
type DraftItem struct {
	ParsedItem
	MatchedProduct *ProductMatch `json:"matched_product,omitempty"`
}

// ProductMatch points a draft item at a catalog product with a similar name
type ProductMatch struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Distance  int    `json:"distance"`
}

// Draft is a parse result staged for review before it becomes a campaign
type Draft struct {
	ID           string      `json:"id"`
	Header       []string    `json:"header"`
	Items        []DraftItem `json:"items"`
	NameHint     string      `json:"name_hint"`
	ValidityHint string      `json:"validity_hint"`
	CreatedAt    time.Time   `json:"created_at"`
}
