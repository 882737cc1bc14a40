package catalog

import (
	"fmt"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// PriceTable maps a package id to a flat trip price in whole US dollars.
type PriceTable struct {
	Currency string           `yaml:"currency"`
	Packages map[string]int64 `yaml:"packages"`
}

// DefaultPriceTable returns the built-in prices.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		Currency: "USD",
		Packages: map[string]int64{
			"budget":   1200,
			"standard": 1850,
			"luxury":   2850,
			"family":   2400,
		},
	}
}

// LoadPriceTable reads a YAML price table from path. Packages missing from
// the file keep their default price; unknown package ids are rejected.
//
//	currency: USD
//	packages:
//	  luxury: 3100
func LoadPriceTable(path string) (PriceTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return PriceTable{}, fmt.Errorf("read price table: %w", err)
	}
	return ParsePriceTable(b)
}

// ParsePriceTable decodes a YAML price table over the defaults.
func ParsePriceTable(b []byte) (PriceTable, error) {
	var file PriceTable
	if err := yaml.Unmarshal(b, &file); err != nil {
		return PriceTable{}, fmt.Errorf("parse price table: %w", err)
	}

	pt := DefaultPriceTable()
	if file.Currency != "" {
		pt.Currency = file.Currency
	}
	for id, price := range file.Packages {
		if _, ok := Lookup(Packages(), id); !ok {
			return PriceTable{}, fmt.Errorf("price table: unknown package %q", id)
		}
		if price < 0 {
			return PriceTable{}, fmt.Errorf("price table: negative price for %q", id)
		}
		pt.Packages[id] = price
	}
	return pt, nil
}

// Estimate returns the price for packageType. Unknown ids price as the
// fallback package.
func (p PriceTable) Estimate(packageType string) int64 {
	if v, ok := p.Packages[packageType]; ok {
		return v
	}
	return p.Packages[Packages()[0].ID]
}

var printer = message.NewPrinter(language.English)

// FormatPrice renders amount with grouping, e.g. "$2,850" for USD.
func (p PriceTable) FormatPrice(amount int64) string {
	if p.Currency == "" || p.Currency == "USD" {
		return printer.Sprintf("$%d", amount)
	}
	return printer.Sprintf("%d %s", amount, p.Currency)
}
