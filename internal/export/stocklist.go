package export

import (
	"math"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// HeaderTotal aggregates manufactured rows that share a header.
type HeaderTotal struct {
	Header         string          `json:"header"`
	Panels         int             `json:"panels"`
	PurchaseMeters float64         `json:"purchaseMeters"`
	FabricCost     decimal.Decimal `json:"fabricCost"`
	LiningCost     decimal.Decimal `json:"liningCost"`
}

// AccessoryTotal aggregates rows that are not sewn: rods, hooks, samples.
type AccessoryTotal struct {
	Title        string `json:"title"`
	VariantTitle string `json:"variantTitle"`
	Quantity     int    `json:"quantity"`
}

// StockTotals is the summary sheet of a stock list.
type StockTotals struct {
	Headers             []HeaderTotal    `json:"headers"`
	Accessories         []AccessoryTotal `json:"accessories"`
	TotalPanels         int              `json:"totalPanels"`
	TotalPurchaseMeters float64          `json:"totalPurchaseMeters"`
	TotalFabricCost     decimal.Decimal  `json:"totalFabricCost"`
	TotalLiningCost     decimal.Decimal  `json:"totalLiningCost"`
	UnpricedRows        int              `json:"unpricedRows"`
}

type accessoryKey struct {
	title   string
	variant string
}

// StockList accumulates rows across orders. It is safe for concurrent use.
type StockList struct {
	mu          sync.Mutex
	rows        []Row
	headers     map[string]*HeaderTotal
	accessories map[accessoryKey]int
	unpriced    int
}

// NewStockList returns an empty aggregator.
func NewStockList() *StockList {
	return &StockList{
		headers:     map[string]*HeaderTotal{},
		accessories: map[accessoryKey]int{},
	}
}

// Add records rows. Panels are counted per window.
func (s *StockList) Add(rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		s.rows = append(s.rows, r)

		if !r.Manufactured {
			s.accessories[accessoryKey{r.Title, r.VariantTitle}] += r.Quantity
			continue
		}

		h, ok := s.headers[r.Header]
		if !ok {
			h = &HeaderTotal{Header: r.Header}
			s.headers[r.Header] = h
		}
		h.Panels += r.PanelCount * r.WindowCount
		h.PurchaseMeters += r.PurchaseMeters
		if r.FabricCost != nil {
			h.FabricCost = h.FabricCost.Add(*r.FabricCost)
		} else {
			s.unpriced++
		}
		if r.LiningCost != nil {
			h.LiningCost = h.LiningCost.Add(*r.LiningCost)
		}
	}
}

// Rows returns a copy of every row added so far, in insertion order.
func (s *StockList) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Totals returns headers sorted by name and accessories sorted by title.
func (s *StockList) Totals() StockTotals {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := StockTotals{UnpricedRows: s.unpriced}
	for _, h := range s.headers {
		t := *h
		t.PurchaseMeters = round2(t.PurchaseMeters)
		out.Headers = append(out.Headers, t)

		out.TotalPanels += t.Panels
		out.TotalPurchaseMeters += h.PurchaseMeters
		out.TotalFabricCost = out.TotalFabricCost.Add(t.FabricCost)
		out.TotalLiningCost = out.TotalLiningCost.Add(t.LiningCost)
	}
	out.TotalPurchaseMeters = round2(out.TotalPurchaseMeters)
	sort.Slice(out.Headers, func(i, j int) bool { return out.Headers[i].Header < out.Headers[j].Header })

	for k, qty := range s.accessories {
		out.Accessories = append(out.Accessories, AccessoryTotal{Title: k.title, VariantTitle: k.variant, Quantity: qty})
	}
	sort.Slice(out.Accessories, func(i, j int) bool {
		a, b := out.Accessories[i], out.Accessories[j]
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.VariantTitle < b.VariantTitle
	})
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
