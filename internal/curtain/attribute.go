package curtain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var priceDeltaPattern = regexp.MustCompile(`\(\+\$(\d+(?:\.\d+)?)\)`)

// RawAttribute is one buyer-selected option attached to a line item.
// PriceDelta, when set, takes precedence over a "(+$N.NN)" suffix in Value.
type RawAttribute struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	PriceDelta string `json:"priceDelta,omitempty"`
}

// CurtainSpec is the normalized specification decoded from a line item's attributes.
type CurtainSpec struct {
	IsRomanShade bool `json:"isRomanShade"`

	MountType    string `json:"mountType,omitempty"`
	LiftStyle    string `json:"liftStyle,omitempty"`
	CordPosition string `json:"cordPosition,omitempty"`

	Header       string `json:"header,omitempty"`
	GrommetColor string `json:"grommetColor,omitempty"`
	LiningType   string `json:"liningType,omitempty"`
	BodyMemory   *bool  `json:"bodyMemory,omitempty"`
	Tieback      string `json:"tieback,omitempty"`
	Room         string `json:"room,omitempty"`

	WidthCM  *float64 `json:"widthCm"`
	HeightCM *float64 `json:"heightCm"`

	WidthPrice  *string `json:"widthPrice,omitempty"`
	HeightPrice *string `json:"heightPrice,omitempty"`
	HeaderPrice *string `json:"headerPrice,omitempty"`
	LiningPrice *string `json:"liningPrice,omitempty"`
}

// HasDimensions reports whether a width was decoded.
func (s CurtainSpec) HasDimensions() bool {
	return s.WidthCM != nil
}

type parseState struct {
	spec   CurtainSpec
	tables *Tables

	// collected in the first pass
	header    string
	hasHeader bool
	tape      string

	widthIn    *float64
	widthFrac  float64
	heightIn   *float64
	heightFrac float64
}

// attributeRule fires when every token is a substring of the key and
// without (if set) is not.
type attributeRule struct {
	tokens  []string
	without string
	apply   func(*parseState, RawAttribute)
}

func (r attributeRule) matches(key string) bool {
	for _, tok := range r.tokens {
		if !strings.Contains(key, tok) {
			return false
		}
	}
	return r.without == "" || !strings.Contains(key, r.without)
}

var attributeRules = []attributeRule{
	{tokens: []string{"Width"}, without: "Fraction", apply: applyWidth},
	{tokens: []string{"Width", "Fraction"}, apply: applyWidthFraction},
	{tokens: []string{"Length"}, without: "Fraction", apply: applyHeight},
	{tokens: []string{"Height"}, without: "Fraction", apply: applyHeight},
	{tokens: []string{"Length", "Fraction"}, apply: applyHeightFraction},
	{tokens: []string{"Height", "Fraction"}, apply: applyHeightFraction},
	{tokens: []string{"Header"}, apply: applyHeaderPrice},
	{tokens: []string{"Mount Type"}, apply: applyMountType},
	{tokens: []string{"Lift Styles"}, apply: applyLiftStyle},
	{tokens: []string{"Cord Position"}, apply: applyCordPosition},
	{tokens: []string{"GROMMET COLOR"}, apply: applyGrommetColor},
	{tokens: []string{"Lining Type"}, apply: applyLining},
	{tokens: []string{"Body Memory Shaped"}, apply: applyBodyMemory},
	{tokens: []string{"Tieback"}, apply: applyTieback},
	{tokens: []string{"Room"}, apply: applyRoom},
}

// Parse decodes attrs into a CurtainSpec. It runs in two phases: companion
// attributes (Header, Tape) are collected first so the header can be resolved
// independently of attribute order, then every matching rule is applied.
// A nil tables uses DefaultTables.
func Parse(attrs []RawAttribute, lineItemTitle string, tables *Tables) CurtainSpec {
	if tables == nil {
		tables = DefaultTables()
	}
	st := &parseState{tables: tables}
	st.spec.IsRomanShade = strings.Contains(strings.ToLower(lineItemTitle), "roman")

	for _, a := range attrs {
		if strings.Contains(a.Key, "Header") {
			st.header = a.Value
			st.hasHeader = true
		}
		if strings.Contains(a.Key, "Tape") {
			st.tape = a.Value
		}
	}

	for _, a := range attrs {
		for _, r := range attributeRules {
			if r.matches(a.Key) {
				r.apply(st, a)
			}
		}
	}

	return st.finish()
}

func (st *parseState) finish() CurtainSpec {
	if st.widthIn != nil {
		cm := InchesToCM(*st.widthIn, st.widthFrac)
		st.spec.WidthCM = &cm
	}
	if st.heightIn != nil {
		cm := InchesToCM(*st.heightIn, st.heightFrac)
		st.spec.HeightCM = &cm
	}
	if st.hasHeader && !st.spec.IsRomanShade {
		st.spec.Header = st.tables.ResolveHeader(st.header, st.tape)
	}
	return st.spec
}

func applyWidth(st *parseState, a RawAttribute) {
	if v, ok := LeadingInches(a.Value); ok {
		st.widthIn = &v
		st.spec.WidthPrice = priceDelta(a)
	}
}

func applyWidthFraction(st *parseState, a RawAttribute) {
	st.widthFrac = ParseFraction(a.Value)
}

func applyHeight(st *parseState, a RawAttribute) {
	if v, ok := LeadingInches(a.Value); ok {
		st.heightIn = &v
		st.spec.HeightPrice = priceDelta(a)
	}
}

func applyHeightFraction(st *parseState, a RawAttribute) {
	st.heightFrac = ParseFraction(a.Value)
}

func applyHeaderPrice(st *parseState, a RawAttribute) {
	if st.spec.IsRomanShade {
		return
	}
	st.spec.HeaderPrice = priceDelta(a)
}

func applyMountType(st *parseState, a RawAttribute) {
	if !st.spec.IsRomanShade {
		return
	}
	if strings.Contains(a.Value, "Outside") {
		st.spec.MountType = "外装"
	} else {
		st.spec.MountType = "内装"
	}
}

func applyLiftStyle(st *parseState, a RawAttribute) {
	if !st.spec.IsRomanShade {
		return
	}
	st.spec.LiftStyle = Normalize(a.Value, nil)
}

func applyCordPosition(st *parseState, a RawAttribute) {
	if !st.spec.IsRomanShade {
		return
	}
	if strings.Contains(a.Value, "Left") {
		st.spec.CordPosition = "左侧"
	} else {
		st.spec.CordPosition = "右侧"
	}
}

func applyGrommetColor(st *parseState, a RawAttribute) {
	st.spec.GrommetColor = Normalize(a.Value, st.tables.GrommetColors)
}

func applyLining(st *parseState, a RawAttribute) {
	if st.spec.IsRomanShade {
		return
	}
	st.spec.LiningType = Normalize(a.Value, st.tables.Linings)
	st.spec.LiningPrice = priceDelta(a)
}

func applyBodyMemory(st *parseState, a RawAttribute) {
	shaped := !strings.Contains(a.Value, "No")
	st.spec.BodyMemory = &shaped
}

func applyTieback(st *parseState, a RawAttribute) {
	if Normalize(a.Value, nil) == "No Need" {
		st.spec.Tieback = "无"
	} else {
		st.spec.Tieback = "有"
	}
}

func applyRoom(st *parseState, a RawAttribute) {
	st.spec.Room = strings.TrimSpace(a.Value)
}

// priceDelta prefers the structured PriceDelta and falls back to the
// "(+$N.NN)" suffix embedded in the display value.
func priceDelta(a RawAttribute) *string {
	if raw := strings.TrimSpace(a.PriceDelta); raw != "" {
		raw = strings.TrimPrefix(strings.TrimPrefix(raw, "+"), "$")
		if d, err := decimal.NewFromString(raw); err == nil {
			s := d.StringFixed(2)
			return &s
		}
	}
	m := priceDeltaPattern.FindStringSubmatch(a.Value)
	if m == nil {
		return nil
	}
	s := m[1]
	return &s
}
