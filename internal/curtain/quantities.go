package curtain

import "github.com/shopspring/decimal"

// DerivedQuantities holds the manufacturing figures computed for one line item.
// All values are zero (and costs nil) for items that are not manufactured.
type DerivedQuantities struct {
	FullnessMultiplier float64          `json:"fullnessMultiplier"`
	WallWidthCM        float64          `json:"wallWidthCm"`
	PurchaseMeters     float64          `json:"purchaseMeters"`
	FabricCost         *decimal.Decimal `json:"fabricCost"`
	LiningCost         *decimal.Decimal `json:"liningCost"`
}

// ComputeQuantities derives the fullness multiplier, wall width and fabric
// purchase length. An empty header excludes the item and yields zero values.
func ComputeQuantities(header string, heightCM, widthCM float64, panelCount, windowCount int, tables *Tables) DerivedQuantities {
	if header == "" {
		return DerivedQuantities{}
	}
	if tables == nil {
		tables = DefaultTables()
	}

	multiplier := tables.FullnessMultiplier(header)
	q := DerivedQuantities{
		FullnessMultiplier: multiplier,
		PurchaseMeters:     PurchaseMeters(heightCM, widthCM, panelCount, windowCount),
	}
	if widthCM > 0 && multiplier > 0 {
		q.WallWidthCM = round2(widthCM / multiplier * float64(panelCount))
	}
	return q
}

// PurchaseMeters applies the piecewise purchase rule. Heights under 260cm are
// railroaded along the width; taller drops are cut per width band.
// Height of exactly 260cm and widths of 840cm or more have no rule and yield 0.
func PurchaseMeters(heightCM, widthCM float64, panelCount, windowCount int) float64 {
	panels := float64(panelCount)
	windows := float64(windowCount)
	drop := heightCM + 40

	var cm float64
	switch {
	case heightCM < 260:
		cm = (widthCM + 40) * panels * windows
	case heightCM == 260:
		cm = 0
	case widthCM < 260:
		cm = drop * panels * windows
	case widthCM < 400:
		cm = drop * (panels + 1) * windows
	case widthCM < 560:
		cm = drop * (panels * 2) * windows
	case widthCM < 700:
		cm = drop * (panels*2 + 1) * windows
	case widthCM < 840:
		cm = drop * (panels * 3) * windows
	default:
		cm = 0
	}
	return round2(cm / 100)
}
