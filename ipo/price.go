package ipo

import (
	"bytes"
	"encoding/json"

	"bistscrapper/extract"
)

// Price is an offering price. A parsed amount is written as a JSON number
// with two decimals; otherwise the raw text or the placeholder is written
// as a string.
type Price struct {
	Amount float64
	Text   string
	Set    bool
}

// PriceOf converts an extracted value.
func PriceOf(v extract.Value) Price {
	if v.Found && v.Number > 0 {
		return Price{Amount: v.Number, Set: true}
	}
	return Price{}
}

// IsDefault reports whether nothing is known about the price.
func (p Price) IsDefault() bool {
	return !p.Set && (p.Text == "" || p.Text == extract.NoPrice)
}

func (p Price) String() string {
	switch {
	case p.Set:
		return extract.FormatPrice(p.Amount)
	case p.Text != "":
		return p.Text
	}
	return extract.NoPrice
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p.Set {
		return []byte(extract.FormatPrice(p.Amount)), nil
	}
	return json.Marshal(p.String())
}

func (p *Price) UnmarshalJSON(b []byte) error {
	*p = Price{}
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = priceFromText(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if f > 0 {
		*p = Price{Amount: f, Set: true}
	}
	return nil
}

func priceFromText(s string) Price {
	if v := extract.PriceCell(s); v.Found {
		return PriceOf(v)
	}
	if s == extract.NoPrice {
		return Price{}
	}
	return Price{Text: s}
}
