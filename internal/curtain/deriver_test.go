package curtain

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func testCatalog() *Catalog {
	return NewCatalog(
		[]PriceCatalogEntry{
			{Code: "8823-05", FabricPricePerMeter: dec("30")},
			{Code: "7001-12", FabricPricePerMeter: dec("18.5")},
		},
		map[string]decimal.Decimal{"白色-100%遮光": dec("12")},
	)
}

func TestDerive_GrommetPanel(t *testing.T) {
	d := NewDeriver(nil, testCatalog())
	item := LineItem{
		Title:        "Custom Drapery",
		VariantTitle: "Linen 8823-05",
		Quantity:     2,
		Attributes: []RawAttribute{
			{Key: "Header", Value: "Grommet (+$5.00)"},
			{Key: "Width", Value: "177.17"},
			{Key: "Length", Value: "118.11"},
			{Key: "Lining Type", Value: "White_Shading Rate 100%"},
		},
	}

	res := d.Derive(item)

	if !res.Manufactured {
		t.Fatalf("expected manufactured item")
	}
	if res.PanelCount != 2 || res.WindowCount != 1 {
		t.Fatalf("panels=%d windows=%d", res.PanelCount, res.WindowCount)
	}
	nearlyEqual(t, "widthCm", *res.Spec.WidthCM, 450.01)
	nearlyEqual(t, "heightCm", *res.Spec.HeightCM, 300)
	nearlyEqual(t, "multiplier", res.Quantities.FullnessMultiplier, 2)
	nearlyEqual(t, "purchaseMeters", res.Quantities.PurchaseMeters, 13.6)
	decimalEqual(t, "fabricCost", res.Quantities.FabricCost, "408")
	decimalEqual(t, "liningCost", res.Quantities.LiningCost, "163.2")
	decimalEqual(t, "cost.fabricCost", res.Cost.FabricCost, "408")
}

func TestDerive_WindowAndPanelOptions(t *testing.T) {
	d := NewDeriver(nil, nil)
	item := LineItem{
		Title:    "Drapery",
		Quantity: 1,
		Attributes: []RawAttribute{
			{Key: "Header", Value: "Pinch Pleat - Double"},
			{Key: "Width", Value: "59.06"},
			{Key: "Height", Value: "78.74"},
		},
	}

	res := d.Derive(item, WithPanelCount(2), WithWindowCount(3))

	if res.PanelCount != 2 || res.WindowCount != 3 {
		t.Fatalf("panels=%d windows=%d", res.PanelCount, res.WindowCount)
	}
	// 150.01cm wide, 200cm drop: (150.01 + 40) * 2 * 3 / 100
	nearlyEqual(t, "purchaseMeters", res.Quantities.PurchaseMeters, 11.4)
	if res.Quantities.FabricCost != nil || res.Cost.FabricUnitPrice != nil {
		t.Fatalf("expected nil prices without a catalog, got %+v", res.Cost)
	}
}

func TestDerive_AccessoryIsNotManufactured(t *testing.T) {
	d := NewDeriver(nil, testCatalog())

	res := d.Derive(LineItem{
		Title:        "Curtain Rod Bracket",
		VariantTitle: "Black",
		Quantity:     4,
		Attributes:   []RawAttribute{{Key: "Width", Value: "60"}},
	})

	if res.Manufactured {
		t.Fatalf("expected accessory to be excluded")
	}
	if res.Quantities.PurchaseMeters != 0 || res.Cost.FabricCost != nil {
		t.Fatalf("expected no quantities, got %+v", res.Quantities)
	}
	if res.PanelCount != 4 {
		t.Fatalf("panel count = %d", res.PanelCount)
	}
}

func TestDerive_HeaderWithoutWidthIsNotManufactured(t *testing.T) {
	res := NewDeriver(nil, nil).Derive(LineItem{
		Title:      "Drapery",
		Quantity:   1,
		Attributes: []RawAttribute{{Key: "Header", Value: "Grommet"}},
	})

	if res.Manufactured || res.Spec.Header != "打孔" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDerive_RomanShadeIsNotManufactured(t *testing.T) {
	res := NewDeriver(nil, testCatalog()).Derive(LineItem{
		Title:        "Roman Shade",
		VariantTitle: "8823-05",
		Quantity:     1,
		Attributes: []RawAttribute{
			{Key: "Header", Value: "Grommet"},
			{Key: "Width", Value: "30"},
			{Key: "Height", Value: "60"},
		},
	})

	if !res.Spec.IsRomanShade || res.Spec.Header != "" || res.Manufactured {
		t.Fatalf("unexpected roman result %+v", res)
	}
}

func TestDeriveAll_PreservesOrderAndIsSafeConcurrently(t *testing.T) {
	d := NewDeriver(nil, testCatalog())
	items := []LineItem{
		{Title: "Drapery", VariantTitle: "7001-12", Quantity: 1, Attributes: []RawAttribute{
			{Key: "Header", Value: "Back Tab"}, {Key: "Width", Value: "50"}, {Key: "Height", Value: "84"},
		}},
		{Title: "Gift Card", Quantity: 1},
		{Title: "Drapery", VariantTitle: "8823-05", Quantity: 2, Attributes: []RawAttribute{
			{Key: "Header", Value: "Grommet"}, {Key: "Width", Value: "50"}, {Key: "Height", Value: "84"},
		}},
	}

	want := d.DeriveAll(items)
	if len(want) != 3 || !want[0].Manufactured || want[1].Manufactured || !want[2].Manufactured {
		t.Fatalf("unexpected results %+v", want)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := d.DeriveAll(items)
			for j := range got {
				if got[j].Quantities.PurchaseMeters != want[j].Quantities.PurchaseMeters {
					t.Errorf("item %d purchase = %v, want %v", j, got[j].Quantities.PurchaseMeters, want[j].Quantities.PurchaseMeters)
				}
			}
		}()
	}
	wg.Wait()
}
