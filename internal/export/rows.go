package export

import (
	"github.com/shopspring/decimal"

	"github.com/Simplici0/curtainworks/internal/curtain"
)

// Row is one line of the stock list.
type Row struct {
	OrderName          string           `json:"orderName"`
	Title              string           `json:"title"`
	VariantTitle       string           `json:"variantTitle"`
	Quantity           int              `json:"quantity"`
	Header             string           `json:"header"`
	LiningType         string           `json:"liningType"`
	GrommetColor       string           `json:"grommetColor"`
	Room               string           `json:"room"`
	WidthCM            *float64         `json:"widthCm"`
	HeightCM           *float64         `json:"heightCm"`
	PanelCount         int              `json:"panelCount"`
	WindowCount        int              `json:"windowCount"`
	FullnessMultiplier float64          `json:"fullnessMultiplier"`
	WallWidthCM        float64          `json:"wallWidthCm"`
	PurchaseMeters     float64          `json:"purchaseMeters"`
	FabricCode         string           `json:"fabricCode"`
	FabricUnitPrice    *decimal.Decimal `json:"fabricUnitPrice"`
	FabricCost         *decimal.Decimal `json:"fabricCost"`
	LiningUnitPrice    *decimal.Decimal `json:"liningUnitPrice"`
	LiningCost         *decimal.Decimal `json:"liningCost"`
	Manufactured       bool             `json:"manufactured"`
}

// BuildRows pairs results with the items they were derived from. The slices
// are expected to be index aligned; extra entries on either side are dropped.
func BuildRows(orderName string, results []curtain.Result, items []curtain.LineItem) []Row {
	n := min(len(results), len(items))
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		res, item := results[i], items[i]
		rows = append(rows, Row{
			OrderName:          orderName,
			Title:              item.Title,
			VariantTitle:       item.VariantTitle,
			Quantity:           item.Quantity,
			Header:             res.Spec.Header,
			LiningType:         res.Spec.LiningType,
			GrommetColor:       res.Spec.GrommetColor,
			Room:               res.Spec.Room,
			WidthCM:            res.Spec.WidthCM,
			HeightCM:           res.Spec.HeightCM,
			PanelCount:         res.PanelCount,
			WindowCount:        res.WindowCount,
			FullnessMultiplier: res.Quantities.FullnessMultiplier,
			WallWidthCM:        res.Quantities.WallWidthCM,
			PurchaseMeters:     res.Quantities.PurchaseMeters,
			FabricCode:         res.Cost.FabricCode,
			FabricUnitPrice:    res.Cost.FabricUnitPrice,
			FabricCost:         res.Cost.FabricCost,
			LiningUnitPrice:    res.Cost.LiningUnitPrice,
			LiningCost:         res.Cost.LiningCost,
			Manufactured:       res.Manufactured,
		})
	}
	return rows
}
