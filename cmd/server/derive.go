package main

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"go.uber.org/zap"

	"github.com/Simplici0/curtainworks/internal/curtain"
	"github.com/Simplici0/curtainworks/internal/export"
	"github.com/Simplici0/curtainworks/internal/shopify"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type deriveRequest struct {
	curtain.LineItem
	WindowCount int `json:"windowCount"`
	PanelCount  int `json:"panelCount"`
}

type orderDeriveResponse struct {
	Order   string           `json:"order"`
	Results []curtain.Result `json:"results"`
}

func (s *server) handleDerive(w http.ResponseWriter, r *http.Request) {
	var req deriveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Quantity < 0 || req.WindowCount < 0 || req.PanelCount < 0 {
		s.writeError(w, r, fmt.Errorf("%w: counts must not be negative", errBadRequest))
		return
	}

	asOf, err := s.asOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.deriver(r, asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	windows := req.WindowCount
	if windows == 0 {
		windows = s.defaultWindows
	}
	res := d.Derive(req.LineItem, curtain.WithWindowCount(windows), curtain.WithPanelCount(req.PanelCount))
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleOrderDerive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	order, err := shopify.DecodeOrder(r.Body)
	if err != nil {
		s.writeError(w, r, badPayload(err))
		return
	}

	opts, err := s.windowOption(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	asOf, err := s.asOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.deriver(r, asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	results := d.DeriveAll(shopify.LineItemsFromOrder(order), opts)
	s.log.Info("order derived",
		zap.String("order", order.Name),
		zap.Int("line_items", len(results)),
	)
	writeJSON(w, http.StatusOK, orderDeriveResponse{Order: order.Name, Results: results})
}

func (s *server) handleStockList(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	orders, err := shopify.DecodeOrders(r.Body)
	if err != nil {
		s.writeError(w, r, badPayload(err))
		return
	}

	opts, err := s.windowOption(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	asOf, err := s.asOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.deriver(r, asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list := export.NewStockList()
	for _, order := range orders {
		list.Add(s.orderRows(d, order, opts)...)
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, list.Rows(), list.Totals()); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="stock-list.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *server) orderRows(d *curtain.Deriver, order goshopify.Order, opts curtain.Option) []export.Row {
	items := shopify.LineItemsFromOrder(order)
	return export.BuildRows(order.Name, d.DeriveAll(items, opts), items)
}

// windowOption reads ?windowCount=, falling back to the configured default.
func (s *server) windowOption(r *http.Request) (curtain.Option, error) {
	raw := r.URL.Query().Get("windowCount")
	if raw == "" {
		return curtain.WithWindowCount(s.defaultWindows), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("%w: windowCount must be a positive integer", errBadRequest)
	}
	return curtain.WithWindowCount(n), nil
}

func badPayload(err error) error {
	if isBadRequest(err) {
		return err
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}
