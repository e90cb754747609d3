package shopify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/spf13/cast"

	"github.com/Simplici0/curtainworks/internal/curtain"
)

// ErrEmptyPayload is returned when a request body holds no order.
var ErrEmptyPayload = errors.New("empty order payload")

// Properties whose name starts with this prefix are private to the storefront
// and never shown to the customer.
const hiddenPropertyPrefix = "_"

// LineItemFromShopify converts a Shopify line item and its properties.
func LineItemFromShopify(item goshopify.LineItem) curtain.LineItem {
	attrs := make([]curtain.RawAttribute, 0, len(item.Properties))
	for _, property := range item.Properties {
		name := strings.TrimSpace(property.Name)
		if name == "" || strings.HasPrefix(name, hiddenPropertyPrefix) {
			continue
		}
		attrs = append(attrs, curtain.RawAttribute{
			Key:   name,
			Value: cast.ToString(property.Value),
		})
	}

	return curtain.LineItem{
		Title:        item.Title,
		VariantTitle: item.VariantTitle,
		Quantity:     item.Quantity,
		Attributes:   attrs,
	}
}

// LineItemsFromOrder converts every line item of an order, in order.
func LineItemsFromOrder(order goshopify.Order) []curtain.LineItem {
	out := make([]curtain.LineItem, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		out = append(out, LineItemFromShopify(item))
	}
	return out
}

// DecodeOrder reads a single order. Both the bare REST resource and the
// {"order": {...}} wrapper are accepted.
func DecodeOrder(r io.Reader) (goshopify.Order, error) {
	data, err := readPayload(r)
	if err != nil {
		return goshopify.Order{}, err
	}

	var wrapped struct {
		Order *goshopify.Order `json:"order"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return goshopify.Order{}, fmt.Errorf("decode order: %w", err)
	}
	if wrapped.Order != nil {
		return *wrapped.Order, nil
	}

	var order goshopify.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return goshopify.Order{}, fmt.Errorf("decode order: %w", err)
	}
	return order, nil
}

// DecodeOrders reads a JSON array of orders or the {"orders": [...]} wrapper.
func DecodeOrders(r io.Reader) ([]goshopify.Order, error) {
	data, err := readPayload(r)
	if err != nil {
		return nil, err
	}

	if data[0] == '[' {
		var orders []goshopify.Order
		if err := json.Unmarshal(data, &orders); err != nil {
			return nil, fmt.Errorf("decode orders: %w", err)
		}
		return orders, nil
	}

	var wrapped struct {
		Orders []goshopify.Order `json:"orders"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return wrapped.Orders, nil
}

func readPayload(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read order payload: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}
