package export

import (
	"bytes"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/curtainworks/internal/curtain"
)

func sampleItems() []curtain.LineItem {
	return []curtain.LineItem{
		{
			Title: "Custom Drapery", VariantTitle: "Linen 8823-05", Quantity: 2,
			Attributes: []curtain.RawAttribute{
				{Key: "Header", Value: "Grommet"},
				{Key: "Width", Value: "177.17"},
				{Key: "Length", Value: "118.11"},
				{Key: "Room", Value: "Bedroom"},
			},
		},
		{
			Title: "Custom Drapery", VariantTitle: "Velvet 5555-1", Quantity: 1,
			Attributes: []curtain.RawAttribute{
				{Key: "Header", Value: "Back Tab"},
				{Key: "Width", Value: "50"},
				{Key: "Length", Value: "84"},
			},
		},
		{Title: "Curtain Rod", VariantTitle: "Black", Quantity: 3},
	}
}

func sampleRows(t *testing.T) []Row {
	t.Helper()
	cat := curtain.NewCatalog([]curtain.PriceCatalogEntry{
		{Code: "8823-05", FabricPricePerMeter: decimal.RequireFromString("30")},
	}, nil)
	items := sampleItems()
	results := curtain.NewDeriver(nil, cat).DeriveAll(items)
	return BuildRows("#1001", results, items)
}

func TestBuildRows(t *testing.T) {
	rows := sampleRows(t)

	require.Len(t, rows, 3)
	first := rows[0]
	assert.Equal(t, "#1001", first.OrderName)
	assert.Equal(t, "打孔", first.Header)
	assert.Equal(t, "Bedroom", first.Room)
	assert.Equal(t, "8823-5", first.FabricCode)
	require.NotNil(t, first.FabricCost)
	assert.Equal(t, "408", first.FabricCost.String())
	assert.InDelta(t, 13.6, first.PurchaseMeters, 1e-9)
	assert.True(t, first.Manufactured)

	assert.Nil(t, rows[1].FabricCost)
	assert.False(t, rows[2].Manufactured)

	assert.Len(t, BuildRows("#1", curtain.NewDeriver(nil, nil).DeriveAll(sampleItems()), sampleItems()[:1]), 1)
}

func TestStockList_Totals(t *testing.T) {
	list := NewStockList()
	list.Add(sampleRows(t)...)
	list.Add(sampleRows(t)[2])

	totals := list.Totals()

	require.Len(t, totals.Headers, 2)
	assert.Equal(t, "打孔", totals.Headers[0].Header)
	assert.Equal(t, 2, totals.Headers[0].Panels)
	assert.InDelta(t, 13.6, totals.Headers[0].PurchaseMeters, 1e-9)
	assert.True(t, totals.Headers[0].FabricCost.Equal(decimal.RequireFromString("408")))
	assert.Equal(t, "背带式", totals.Headers[1].Header)

	assert.Equal(t, 3, totals.TotalPanels)
	assert.Equal(t, 1, totals.UnpricedRows)
	assert.True(t, totals.TotalFabricCost.Equal(decimal.RequireFromString("408")))

	require.Len(t, totals.Accessories, 1)
	assert.Equal(t, AccessoryTotal{Title: "Curtain Rod", VariantTitle: "Black", Quantity: 6}, totals.Accessories[0])
	assert.Len(t, list.Rows(), 4)
}

func TestStockList_ConcurrentAdd(t *testing.T) {
	list := NewStockList()
	rows := sampleRows(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list.Add(rows...)
		}()
	}
	wg.Wait()

	totals := list.Totals()
	assert.Equal(t, 30, totals.TotalPanels)
	assert.Equal(t, 30, totals.Accessories[0].Quantity)
	assert.True(t, totals.TotalFabricCost.Equal(decimal.RequireFromString("4080")))
}

func TestWriteWorkbook(t *testing.T) {
	list := NewStockList()
	rows := sampleRows(t)
	list.Add(rows...)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, rows, list.Totals()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DetailSheet, SummarySheet}, f.GetSheetList())

	detail, err := f.GetRows(DetailSheet)
	require.NoError(t, err)
	require.Len(t, detail, 4)
	assert.Equal(t, detailHeaders, detail[0])
	assert.Equal(t, "#1001", detail[1][0])
	assert.Equal(t, "打孔", detail[1][4])
	assert.Equal(t, "450.01", detail[1][8])
	assert.Equal(t, "13.6", detail[1][14])
	assert.Equal(t, "408", detail[1][17])
	assert.Equal(t, "是", detail[1][20])
	assert.Equal(t, missingValue, detail[2][17])
	assert.Equal(t, missingValue, detail[3][8])
	assert.Equal(t, "否", detail[3][20])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, summaryHeaders, summary[0])
	assert.Equal(t, "合计", summary[3][0])
	assert.Equal(t, "3", summary[3][1])
	assert.Equal(t, accessoryHeaders, summary[5])
	assert.Equal(t, []string{"Curtain Rod", "Black", "3"}, summary[6])

	style, err := f.GetCellStyle(DetailSheet, "A1")
	require.NoError(t, err)
	s, err := f.GetStyle(style)
	require.NoError(t, err)
	assert.True(t, s.Font.Bold)
}
