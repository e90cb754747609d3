package seed

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Simplici0/curtainworks/internal/catalog"
)

// Config contains the values required by startup seed.
type Config struct {
	Path          string
	EffectiveFrom time.Time // zero means now
}

// seedSource tags rows written by the seed. The seed only compares against
// its own rows, so prices added later through the API stay in effect.
const seedSource = "seed"

// Stats contains seed operation counters. Updates counts new price versions
// written for codes whose last seeded price differs from the file.
type Stats struct {
	Inserts int
	Updates int
}

// File is the on-disk seed document.
type File struct {
	Fabrics []Fabric `yaml:"fabrics"`
	Linings []Lining `yaml:"linings"`
}

// Fabric is one fabric price entry. Prices are decimal strings.
type Fabric struct {
	Code                string `yaml:"code"`
	FabricPricePerMeter string `yaml:"fabricPricePerMeter"`
	LiningPricePerMeter string `yaml:"liningPricePerMeter"`
}

// Lining is one lining price entry.
type Lining struct {
	Name          string `yaml:"name"`
	PricePerMeter string `yaml:"pricePerMeter"`
}

// Load reads a seed file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}
	return f, nil
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	file, err := Load(cfg.Path)
	if err != nil {
		return Stats{}, err
	}
	effective := cfg.EffectiveFrom
	if effective.IsZero() {
		effective = time.Now()
	}
	return Apply(db, file, effective)
}

// Apply writes the seed document in one transaction.
func Apply(db *sql.DB, file File, effective time.Time) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	at := catalog.FormatTime(effective)

	for _, f := range file.Fabrics {
		if err := ensureFabric(tx, f, at, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}
	for _, l := range file.Linings {
		if err := ensureLining(tx, l, at, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureFabric(tx *sql.Tx, f Fabric, at string, stats *Stats) error {
	p := catalog.FabricPrice{Code: f.Code}
	var err error
	if p.FabricPricePerMeter, err = decimal.NewFromString(f.FabricPricePerMeter); err != nil {
		return fmt.Errorf("seed fabric %s price: %w", f.Code, err)
	}
	if f.LiningPricePerMeter != "" {
		lining, err := decimal.NewFromString(f.LiningPricePerMeter)
		if err != nil {
			return fmt.Errorf("seed fabric %s lining price: %w", f.Code, err)
		}
		p.LiningPricePerMeter = decimal.NewNullDecimal(lining)
	}
	if err := catalog.ValidateFabric(p); err != nil {
		return fmt.Errorf("seed fabric: %w", err)
	}

	var current decimal.Decimal
	var currentLining decimal.NullDecimal
	err = tx.QueryRow(`
		SELECT fabric_price_per_meter, lining_price_per_meter
		FROM fabric_prices
		WHERE code = ? AND source = ?
		ORDER BY effective_from DESC, id DESC
		LIMIT 1
	`, p.Code, seedSource).Scan(&current, &currentLining)
	seeded := true
	if errors.Is(err, sql.ErrNoRows) {
		seeded = false
	} else if err != nil {
		return fmt.Errorf("check fabric price %s: %w", p.Code, err)
	}
	if seeded && current.Equal(p.FabricPricePerMeter) && nullEqual(currentLining, p.LiningPricePerMeter) {
		return nil
	}
	// A code priced only outside the seed is left alone.
	if !seeded {
		owned, err := hasRows(tx, `SELECT EXISTS(SELECT 1 FROM fabric_prices WHERE code = ?)`, p.Code)
		if err != nil {
			return fmt.Errorf("check fabric price %s: %w", p.Code, err)
		}
		if owned {
			return nil
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO fabric_prices (code, fabric_price_per_meter, lining_price_per_meter, effective_from, created_at, source)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.Code, p.FabricPricePerMeter.String(), p.LiningPricePerMeter, at, at, seedSource); err != nil {
		return fmt.Errorf("insert seed fabric price %s: %w", p.Code, err)
	}
	if seeded {
		stats.Updates++
	} else {
		stats.Inserts++
	}
	return nil
}

func ensureLining(tx *sql.Tx, l Lining, at string, stats *Stats) error {
	if l.Name == "" {
		return fmt.Errorf("seed lining: %w", catalog.ErrInvalidName)
	}
	price, err := decimal.NewFromString(l.PricePerMeter)
	if err != nil {
		return fmt.Errorf("seed lining %s price: %w", l.Name, err)
	}
	if price.IsNegative() {
		return fmt.Errorf("seed lining %s: %w", l.Name, catalog.ErrNegativePrice)
	}

	var current decimal.Decimal
	err = tx.QueryRow(`
		SELECT price_per_meter
		FROM lining_prices
		WHERE name = ? AND source = ?
		ORDER BY effective_from DESC, id DESC
		LIMIT 1
	`, l.Name, seedSource).Scan(&current)
	seeded := true
	if errors.Is(err, sql.ErrNoRows) {
		seeded = false
	} else if err != nil {
		return fmt.Errorf("check lining price %s: %w", l.Name, err)
	}
	if seeded && current.Equal(price) {
		return nil
	}
	if !seeded {
		owned, err := hasRows(tx, `SELECT EXISTS(SELECT 1 FROM lining_prices WHERE name = ?)`, l.Name)
		if err != nil {
			return fmt.Errorf("check lining price %s: %w", l.Name, err)
		}
		if owned {
			return nil
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO lining_prices (name, price_per_meter, effective_from, created_at, source)
		VALUES (?, ?, ?, ?, ?)
	`, l.Name, price.String(), at, at, seedSource); err != nil {
		return fmt.Errorf("insert seed lining price %s: %w", l.Name, err)
	}
	if seeded {
		stats.Updates++
	} else {
		stats.Inserts++
	}
	return nil
}

// hasRows reports whether an EXISTS query matched.
func hasRows(tx *sql.Tx, query string, arg any) (bool, error) {
	var exists bool
	if err := tx.QueryRow(query, arg).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
