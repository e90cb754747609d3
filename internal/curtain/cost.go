package curtain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var fabricCodePattern = regexp.MustCompile(`(\d+)-(\d+)`)

// PriceCatalogEntry is the unit price of one fabric/color code.
type PriceCatalogEntry struct {
	Code                string              `json:"code"`
	FabricPricePerMeter decimal.Decimal     `json:"fabricPricePerMeter"`
	LiningPricePerMeter decimal.NullDecimal `json:"liningPricePerMeter"`
}

// FabricCode is a fabric/color pair with leading zeros stripped from the color.
type FabricCode struct {
	Fabric string `json:"fabric"`
	Color  string `json:"color"`
}

// Key returns the normalized catalog key, e.g. "8823-5".
func (c FabricCode) Key() string {
	return c.Fabric + "-" + c.Color
}

// ExtractFabricCode finds the first "<fabric>-<color>" pair in a variant title.
func ExtractFabricCode(variantTitle string) *FabricCode {
	m := fabricCodePattern.FindStringSubmatch(variantTitle)
	if m == nil {
		return nil
	}
	color := strings.TrimLeft(m[2], "0")
	if color == "" {
		color = "0"
	}
	return &FabricCode{Fabric: m[1], Color: color}
}

// Catalog is a read-only price lookup built once per batch.
type Catalog struct {
	fabrics map[string]PriceCatalogEntry
	linings map[string]decimal.Decimal
}

// NewCatalog indexes entries by code verbatim and linings by display name.
func NewCatalog(entries []PriceCatalogEntry, linings map[string]decimal.Decimal) *Catalog {
	c := &Catalog{
		fabrics: make(map[string]PriceCatalogEntry, len(entries)),
		linings: make(map[string]decimal.Decimal, len(linings)),
	}
	for _, e := range entries {
		c.fabrics[strings.TrimSpace(e.Code)] = e
	}
	for name, price := range linings {
		c.linings[strings.TrimSpace(name)] = price
	}
	return c
}

// Fabric looks up the normalized key first, then the zero-padded two digit
// color for single-digit colors ("8823-5" then "8823-05").
func (c *Catalog) Fabric(code FabricCode) (PriceCatalogEntry, bool) {
	if c == nil {
		return PriceCatalogEntry{}, false
	}
	if e, ok := c.fabrics[code.Key()]; ok {
		return e, true
	}
	if len(code.Color) == 1 {
		if e, ok := c.fabrics[code.Fabric+"-0"+code.Color]; ok {
			return e, true
		}
	}
	return PriceCatalogEntry{}, false
}

// Lining returns the unit price of a lining by display name.
func (c *Catalog) Lining(name string) (decimal.Decimal, bool) {
	if c == nil {
		return decimal.Zero, false
	}
	p, ok := c.linings[name]
	return p, ok
}

// Len returns the number of fabric entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.fabrics)
}

// Cost is the resolved pricing of one line item. Nil fields mean unresolved
// or not applicable.
type Cost struct {
	FabricCode      string           `json:"fabricCode,omitempty"`
	FabricUnitPrice *decimal.Decimal `json:"fabricUnitPrice"`
	FabricCost      *decimal.Decimal `json:"fabricCost"`
	LiningUnitPrice *decimal.Decimal `json:"liningUnitPrice"`
	LiningCost      *decimal.Decimal `json:"liningCost"`
}

// ResolveCost prices purchaseMeters of fabric and lining against cat.
// Non-positive purchaseMeters leaves the cost fields nil.
func ResolveCost(code *FabricCode, purchaseMeters float64, liningName string, cat *Catalog) Cost {
	var out Cost

	var entry PriceCatalogEntry
	found := false
	if code != nil {
		out.FabricCode = code.Key()
		entry, found = cat.Fabric(*code)
		if found {
			unit := entry.FabricPricePerMeter
			out.FabricUnitPrice = &unit
		}
	}

	if liningName != "" {
		if unit, ok := cat.Lining(liningName); ok {
			out.LiningUnitPrice = &unit
		} else if found && entry.LiningPricePerMeter.Valid {
			unit := entry.LiningPricePerMeter.Decimal
			out.LiningUnitPrice = &unit
		}
	}

	if purchaseMeters <= 0 {
		return out
	}
	meters := decimal.NewFromFloat(purchaseMeters)
	if out.FabricUnitPrice != nil {
		c := meters.Mul(*out.FabricUnitPrice).Round(2)
		out.FabricCost = &c
	}
	if out.LiningUnitPrice != nil {
		c := meters.Mul(*out.LiningUnitPrice).Round(2)
		out.LiningCost = &c
	}
	return out
}
