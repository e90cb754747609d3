package curtain

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTables is returned when a tables file fails validation.
var ErrInvalidTables = errors.New("invalid tables")

const (
	defaultFullness   = 2.5
	rippleFoldTrigger = "Ripple Fold"
)

// FullnessRule maps a header substring to a fullness multiplier.
type FullnessRule struct {
	Match      string  `yaml:"match" json:"match"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// RippleFoldRule picks the Ripple Fold header name from the tape attribute.
type RippleFoldRule struct {
	Tape   string `yaml:"tape" json:"tape"`
	Header string `yaml:"header" json:"header"`
}

// Tables holds the read-only name dictionaries and the fullness table.
// Rule slices are evaluated in declaration order, first match wins.
type Tables struct {
	Headers         map[string]string `yaml:"headers" json:"headers"`
	GrommetColors   map[string]string `yaml:"grommetColors" json:"grommetColors"`
	Linings         map[string]string `yaml:"linings" json:"linings"`
	RippleFold      []RippleFoldRule  `yaml:"rippleFold" json:"rippleFold"`
	Fullness        []FullnessRule    `yaml:"fullness" json:"fullness"`
	DefaultFullness float64           `yaml:"defaultFullness" json:"defaultFullness"`
}

// DefaultTables returns the built-in dictionaries. Each call returns a fresh copy.
func DefaultTables() *Tables {
	return &Tables{
		Headers: map[string]string{
			"Pinch Pleat - Double": "韩褶-L型-2折",
			"Pinch Pleat - Triple": "韩褶-L型-3折",
			"Rod Pocket":           "穿杆带遮轨",
			"Grommet":              "打孔",
			"Back Tab":             "背带式",
			"Ring Top":             "吊环挂钩",
			"Ripple Fold":          "蛇形帘",
			"Goblet Pleat":         "酒杯褶",
			"Inverted Box Pleat":   "工字褶",
			"Box Pleat":            "工字褶",
		},
		GrommetColors: map[string]string{
			"Black":  "黑色",
			"Silver": "银色",
			"Bronze": "古铜色",
			"Gold":   "金色",
			"White":  "白色",
			"Nickel": "镍色",
		},
		Linings: map[string]string{
			"Unlined":                 "无衬布",
			"Standard Lining":         "普通衬布",
			"Blackout Lining":         "遮光衬布",
			"White_Shading Rate 100%": "白色-100%遮光",
			"Black_Shading Rate 100%": "黑色-100%遮光",
			"Beige_Shading Rate 85%":  "米色-85%遮光",
		},
		RippleFold: []RippleFoldRule{
			{Tape: "Hook", Header: "蛇形帘-挂钩"},
			{Tape: "Buckle", Header: "蛇形帘-卡扣"},
			{Tape: "Snap", Header: "蛇形帘-卡扣"},
		},
		Fullness: []FullnessRule{
			{Match: "韩褶-L型-2折", Multiplier: 2},
			{Match: "韩褶-L型-3折", Multiplier: 2.5},
			{Match: "穿杆带遮轨", Multiplier: 2},
			{Match: "打孔", Multiplier: 2},
			{Match: "背带式", Multiplier: 2.5},
			{Match: "吊环挂钩", Multiplier: 2},
			{Match: "蛇形帘", Multiplier: 2.5},
			{Match: "酒杯褶", Multiplier: 2.5},
			{Match: "工字褶", Multiplier: 2.5},
		},
		DefaultFullness: defaultFullness,
	}
}

// LoadTables reads a YAML tables file and overlays it on DefaultTables.
// Map entries are merged; non-empty rule lists replace the defaults.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables file: %w", err)
	}
	return LoadTablesFromBytes(data)
}

// LoadTablesFromBytes is LoadTables for an in-memory document.
func LoadTablesFromBytes(data []byte) (*Tables, error) {
	var overlay Tables
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	if err := overlay.validate(); err != nil {
		return nil, err
	}

	t := DefaultTables()
	mergeMap(t.Headers, overlay.Headers)
	mergeMap(t.GrommetColors, overlay.GrommetColors)
	mergeMap(t.Linings, overlay.Linings)
	if len(overlay.RippleFold) > 0 {
		t.RippleFold = overlay.RippleFold
	}
	if len(overlay.Fullness) > 0 {
		t.Fullness = overlay.Fullness
	}
	if overlay.DefaultFullness > 0 {
		t.DefaultFullness = overlay.DefaultFullness
	}
	return t, nil
}

func (t *Tables) validate() error {
	for i, r := range t.Fullness {
		if strings.TrimSpace(r.Match) == "" {
			return fmt.Errorf("%w: fullness[%d].match is empty", ErrInvalidTables, i)
		}
		if r.Multiplier <= 0 {
			return fmt.Errorf("%w: fullness[%d].multiplier must be positive", ErrInvalidTables, i)
		}
	}
	for i, r := range t.RippleFold {
		if r.Tape == "" || r.Header == "" {
			return fmt.Errorf("%w: rippleFold[%d] needs tape and header", ErrInvalidTables, i)
		}
	}
	if t.DefaultFullness < 0 {
		return fmt.Errorf("%w: defaultFullness must not be negative", ErrInvalidTables)
	}
	return nil
}

func mergeMap(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}

// FullnessMultiplier returns the multiplier for a normalized header name.
// Unrecognized headers get the default, so the result is never zero.
func (t *Tables) FullnessMultiplier(header string) float64 {
	for _, r := range t.Fullness {
		if strings.Contains(header, r.Match) {
			return r.Multiplier
		}
	}
	if t.DefaultFullness > 0 {
		return t.DefaultFullness
	}
	return defaultFullness
}

// ResolveHeader maps a raw header value to its display name. Ripple Fold
// headers take their variant from the tape attribute when one matches.
func (t *Tables) ResolveHeader(rawHeader, tape string) string {
	stripped := stripSuffix(rawHeader)
	if strings.Contains(stripped, rippleFoldTrigger) && tape != "" {
		for _, r := range t.RippleFold {
			if strings.Contains(tape, r.Tape) {
				return r.Header
			}
		}
	}
	return Normalize(rawHeader, t.Headers)
}
