package shopify

import (
	"strings"
	"testing"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/curtainworks/internal/curtain"
)

const orderJSON = `{
  "id": 450789469,
  "name": "#1001",
  "line_items": [
    {
      "id": 1,
      "title": "Custom Drapery",
      "variant_title": "Linen 8823-05",
      "quantity": 2,
      "properties": [
        {"name": "Header", "value": "Grommet (+$5.00)"},
        {"name": "Width", "value": 177.17},
        {"name": "Length", "value": "118.11"},
        {"name": "_uploadToken", "value": "abc"},
        {"name": "Lining Type", "value": "White_Shading Rate 100%"}
      ]
    },
    {
      "id": 2,
      "title": "Curtain Rod",
      "variant_title": "Black",
      "quantity": 1,
      "properties": []
    }
  ]
}`

func TestLineItemFromShopify(t *testing.T) {
	item := goshopify.LineItem{
		Title:        "Roman Shade",
		VariantTitle: "7001-12",
		Quantity:     1,
		Properties: []goshopify.NoteAttribute{
			{Name: "Width", Value: 30},
			{Name: "Body Memory Shaped", Value: true},
			{Name: "_hidden", Value: "x"},
			{Name: " ", Value: "blank"},
		},
	}

	got := LineItemFromShopify(item)

	assert.Equal(t, curtain.LineItem{
		Title:        "Roman Shade",
		VariantTitle: "7001-12",
		Quantity:     1,
		Attributes: []curtain.RawAttribute{
			{Key: "Width", Value: "30"},
			{Key: "Body Memory Shaped", Value: "true"},
		},
	}, got)
}

func TestDecodeOrder_BareAndWrapped(t *testing.T) {
	bare, err := DecodeOrder(strings.NewReader(orderJSON))
	require.NoError(t, err)
	wrapped, err := DecodeOrder(strings.NewReader(`{"order": ` + orderJSON + `}`))
	require.NoError(t, err)

	for _, order := range []goshopify.Order{bare, wrapped} {
		assert.Equal(t, "#1001", order.Name)
		require.Len(t, order.LineItems, 2)
	}

	items := LineItemsFromOrder(bare)
	require.Len(t, items, 2)
	assert.Equal(t, "Linen 8823-05", items[0].VariantTitle)
	assert.Equal(t, 2, items[0].Quantity)
	require.Len(t, items[0].Attributes, 4)
	assert.Equal(t, curtain.RawAttribute{Key: "Width", Value: "177.17"}, items[0].Attributes[1])
	assert.Empty(t, items[1].Attributes)
}

func TestDecodeOrder_FeedsDeriver(t *testing.T) {
	order, err := DecodeOrder(strings.NewReader(orderJSON))
	require.NoError(t, err)

	results := curtain.NewDeriver(nil, nil).DeriveAll(LineItemsFromOrder(order))

	require.Len(t, results, 2)
	assert.True(t, results[0].Manufactured)
	assert.Equal(t, "打孔", results[0].Spec.Header)
	assert.InDelta(t, 13.6, results[0].Quantities.PurchaseMeters, 1e-9)
	assert.False(t, results[1].Manufactured)
}

func TestDecodeOrder_Errors(t *testing.T) {
	_, err := DecodeOrder(strings.NewReader("  "))
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = DecodeOrder(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestDecodeOrders(t *testing.T) {
	list, err := DecodeOrders(strings.NewReader(`[` + orderJSON + `,` + orderJSON + `]`))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	wrapped, err := DecodeOrders(strings.NewReader(`{"orders": [` + orderJSON + `]}`))
	require.NoError(t, err)
	assert.Len(t, wrapped, 1)

	_, err = DecodeOrders(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyPayload)
}
