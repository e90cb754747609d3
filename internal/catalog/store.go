package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Simplici0/curtainworks/internal/curtain"
)

// Stored timestamps use a fixed-width UTC layout so that text comparison in
// SQL orders them chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	// ErrInvalidCode means a fabric code is not "<fabric>-<color>" digits.
	ErrInvalidCode = errors.New("invalid fabric code")

	// ErrInvalidName means a lining name is empty.
	ErrInvalidName = errors.New("invalid lining name")

	// ErrNegativePrice means a per-meter price is below zero.
	ErrNegativePrice = errors.New("negative price")
)

var codePattern = regexp.MustCompile(`^\d+-\d+$`)

// FabricPrice is one version of a fabric's price.
type FabricPrice struct {
	ID                  int64               `json:"id"`
	Code                string              `json:"code"`
	FabricPricePerMeter decimal.Decimal     `json:"fabricPricePerMeter"`
	LiningPricePerMeter decimal.NullDecimal `json:"liningPricePerMeter"`
	EffectiveFrom       time.Time           `json:"effectiveFrom"`
	CreatedAt           time.Time           `json:"createdAt"`
}

// LiningPrice is one version of a lining's price, keyed by display name.
type LiningPrice struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	PricePerMeter decimal.Decimal `json:"pricePerMeter"`
	EffectiveFrom time.Time       `json:"effectiveFrom"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store keeps price history. Rows are append-only; a price change is a new
// row with a later effective date.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

// New returns a Store over an already migrated database.
func New(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log, now: time.Now}
}

// AddFabricPrice validates p and stores it as a new price version.
func (s *Store) AddFabricPrice(ctx context.Context, p FabricPrice) (int64, error) {
	return s.insertFabric(ctx, s.db, p)
}

func (s *Store) insertFabric(ctx context.Context, ex execer, p FabricPrice) (int64, error) {
	p.Code = strings.TrimSpace(p.Code)
	if err := ValidateFabric(p); err != nil {
		return 0, err
	}
	if p.EffectiveFrom.IsZero() {
		p.EffectiveFrom = s.now()
	}

	res, err := ex.ExecContext(ctx, `
		INSERT INTO fabric_prices (code, fabric_price_per_meter, lining_price_per_meter, effective_from, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.Code, p.FabricPricePerMeter.String(), p.LiningPricePerMeter, FormatTime(p.EffectiveFrom), FormatTime(s.now()))
	if err != nil {
		return 0, fmt.Errorf("insert fabric price: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read fabric price id: %w", err)
	}
	return id, nil
}

// ValidateFabric checks the code shape and rejects negative prices.
func ValidateFabric(p FabricPrice) error {
	if !codePattern.MatchString(p.Code) {
		return fmt.Errorf("%w: %q", ErrInvalidCode, p.Code)
	}
	if p.FabricPricePerMeter.IsNegative() {
		return fmt.Errorf("fabric price for %s: %w", p.Code, ErrNegativePrice)
	}
	if p.LiningPricePerMeter.Valid && p.LiningPricePerMeter.Decimal.IsNegative() {
		return fmt.Errorf("lining price for %s: %w", p.Code, ErrNegativePrice)
	}
	return nil
}

// AddLiningPrice validates p and stores it as a new lining price version.
func (s *Store) AddLiningPrice(ctx context.Context, p LiningPrice) (int64, error) {
	return s.insertLining(ctx, s.db, p)
}

func (s *Store) insertLining(ctx context.Context, ex execer, p LiningPrice) (int64, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return 0, fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if p.PricePerMeter.IsNegative() {
		return 0, fmt.Errorf("lining price for %s: %w", p.Name, ErrNegativePrice)
	}
	if p.EffectiveFrom.IsZero() {
		p.EffectiveFrom = s.now()
	}

	res, err := ex.ExecContext(ctx, `
		INSERT INTO lining_prices (name, price_per_meter, effective_from, created_at)
		VALUES (?, ?, ?, ?)
	`, p.Name, p.PricePerMeter.String(), FormatTime(p.EffectiveFrom), FormatTime(s.now()))
	if err != nil {
		return 0, fmt.Errorf("insert lining price: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read lining price id: %w", err)
	}
	return id, nil
}

// FabricPrices returns the price in effect at asOf for every code, ordered by code.
func (s *Store) FabricPrices(ctx context.Context, asOf time.Time) ([]curtain.PriceCatalogEntry, error) {
	at := FormatTime(asOf)
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.code, f.fabric_price_per_meter, f.lining_price_per_meter
		FROM fabric_prices f
		WHERE f.id = (
			SELECT g.id
			FROM fabric_prices g
			WHERE g.code = f.code AND g.effective_from <= ?
			ORDER BY g.effective_from DESC, g.id DESC
			LIMIT 1
		)
		ORDER BY f.code
	`, at)
	if err != nil {
		return nil, fmt.Errorf("query fabric prices: %w", err)
	}
	defer rows.Close()

	var out []curtain.PriceCatalogEntry
	for rows.Next() {
		var e curtain.PriceCatalogEntry
		if err := rows.Scan(&e.Code, &e.FabricPricePerMeter, &e.LiningPricePerMeter); err != nil {
			return nil, fmt.Errorf("scan fabric price: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fabric prices: %w", err)
	}
	return out, nil
}

// LiningPrices returns the lining price in effect at asOf, keyed by name.
func (s *Store) LiningPrices(ctx context.Context, asOf time.Time) (map[string]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.name, l.price_per_meter
		FROM lining_prices l
		WHERE l.id = (
			SELECT m.id
			FROM lining_prices m
			WHERE m.name = l.name AND m.effective_from <= ?
			ORDER BY m.effective_from DESC, m.id DESC
			LIMIT 1
		)
	`, FormatTime(asOf))
	if err != nil {
		return nil, fmt.Errorf("query lining prices: %w", err)
	}
	defer rows.Close()

	out := map[string]decimal.Decimal{}
	for rows.Next() {
		var name string
		var price decimal.Decimal
		if err := rows.Scan(&name, &price); err != nil {
			return nil, fmt.Errorf("scan lining price: %w", err)
		}
		out[name] = price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lining prices: %w", err)
	}
	return out, nil
}

// FabricHistory returns every version recorded for code, newest first.
func (s *Store) FabricHistory(ctx context.Context, code string) ([]FabricPrice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, fabric_price_per_meter, lining_price_per_meter, effective_from, created_at
		FROM fabric_prices
		WHERE code = ?
		ORDER BY effective_from DESC, id DESC
	`, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("query fabric history: %w", err)
	}
	defer rows.Close()

	var out []FabricPrice
	for rows.Next() {
		var p FabricPrice
		var effective, created string
		if err := rows.Scan(&p.ID, &p.Code, &p.FabricPricePerMeter, &p.LiningPricePerMeter, &effective, &created); err != nil {
			return nil, fmt.Errorf("scan fabric history: %w", err)
		}
		if p.EffectiveFrom, err = parseTime(effective); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fabric history: %w", err)
	}
	return out, nil
}

// Snapshot builds the read-only catalog the deriver prices against.
func (s *Store) Snapshot(ctx context.Context, asOf time.Time) (*curtain.Catalog, error) {
	fabrics, err := s.FabricPrices(ctx, asOf)
	if err != nil {
		return nil, err
	}
	linings, err := s.LiningPrices(ctx, asOf)
	if err != nil {
		return nil, err
	}
	s.log.Debug("catalog snapshot",
		zap.Time("as_of", asOf),
		zap.Int("fabrics", len(fabrics)),
		zap.Int("linings", len(linings)),
	)
	return curtain.NewCatalog(fabrics, linings), nil
}

// FormatTime renders t in the stored timestamp layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}
