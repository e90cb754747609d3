package curtain

// LineItem is the caller's view of one order line.
type LineItem struct {
	Title        string         `json:"title"`
	VariantTitle string         `json:"variantTitle"`
	Quantity     int            `json:"quantity"`
	Attributes   []RawAttribute `json:"attributes"`
}

// Result groups everything derived for one line item.
type Result struct {
	Spec         CurtainSpec       `json:"spec"`
	Quantities   DerivedQuantities `json:"quantities"`
	Cost         Cost              `json:"cost"`
	PanelCount   int               `json:"panelCount"`
	WindowCount  int               `json:"windowCount"`
	Manufactured bool              `json:"manufactured"`
}

type deriveOptions struct {
	panelCount  int
	windowCount int
}

// Option overrides a per-call default.
type Option func(*deriveOptions)

// WithPanelCount overrides the panel count, which defaults to the line item quantity.
func WithPanelCount(n int) Option {
	return func(o *deriveOptions) { o.panelCount = n }
}

// WithWindowCount overrides the window count, which defaults to 1.
func WithWindowCount(n int) Option {
	return func(o *deriveOptions) { o.windowCount = n }
}

// Deriver runs the parse, quantity and cost steps against fixed tables and a
// fixed catalog. It holds no mutable state and may be shared across goroutines.
type Deriver struct {
	tables  *Tables
	catalog *Catalog
}

// NewDeriver returns a Deriver. Nil tables fall back to DefaultTables; a nil
// catalog resolves every price to nil.
func NewDeriver(tables *Tables, catalog *Catalog) *Deriver {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Deriver{tables: tables, catalog: catalog}
}

// Tables returns the tables the deriver was built with.
func (d *Deriver) Tables() *Tables {
	return d.tables
}

// Derive decodes and prices a single line item. Items without a header or a
// width (hardware, gifts, Roman shades) are returned with Manufactured false
// and zero quantities.
func (d *Deriver) Derive(item LineItem, opts ...Option) Result {
	o := deriveOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.panelCount < 1 {
		o.panelCount = item.Quantity
	}
	if o.windowCount < 1 {
		o.windowCount = 1
	}

	spec := Parse(item.Attributes, item.Title, d.tables)
	res := Result{
		Spec:        spec,
		PanelCount:  o.panelCount,
		WindowCount: o.windowCount,
	}
	if spec.Header == "" || !spec.HasDimensions() {
		return res
	}

	var height float64
	if spec.HeightCM != nil {
		height = *spec.HeightCM
	}
	q := ComputeQuantities(spec.Header, height, *spec.WidthCM, o.panelCount, o.windowCount, d.tables)
	cost := ResolveCost(ExtractFabricCode(item.VariantTitle), q.PurchaseMeters, spec.LiningType, d.catalog)
	q.FabricCost = cost.FabricCost
	q.LiningCost = cost.LiningCost

	res.Quantities = q
	res.Cost = cost
	res.Manufactured = true
	return res
}

// DeriveAll derives every item in order with the same options.
func (d *Deriver) DeriveAll(items []LineItem, opts ...Option) []Result {
	out := make([]Result, 0, len(items))
	for _, item := range items {
		out = append(out, d.Derive(item, opts...))
	}
	return out
}
