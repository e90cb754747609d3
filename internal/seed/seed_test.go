package seed

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/curtainworks/internal/catalog"
	"github.com/Simplici0/curtainworks/internal/db"
	"github.com/Simplici0/curtainworks/internal/migrations"
)

const seedDoc = `
fabrics:
  - code: "8823-05"
    fabricPricePerMeter: "30"
  - code: "7001-12"
    fabricPricePerMeter: "18.50"
    liningPricePerMeter: "6"
linings:
  - name: 普通衬布
    pricePerMeter: "10"
  - name: 白色-100%遮光
    pricePerMeter: "12"
`

func openSeedDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "seed-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database, nil); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func writeSeed(t *testing.T, doc string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	return path
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	database := openSeedDB(t)
	cfg := Config{Path: writeSeed(t, seedDoc), EffectiveFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	for i := 0; i < 5; i++ {
		stats, err := Run(database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 4 {
				t.Fatalf("expected 4 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Updates != 0 {
			t.Fatalf("expected no writes in iteration %d, got %+v", i, stats)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM fabric_prices WHERE code = ?`, "8823-05", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM lining_prices`, nil, 2)
}

func TestRunWritesNewVersionOnChange(t *testing.T) {
	t.Parallel()

	database := openSeedDB(t)
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := Run(database, Config{Path: writeSeed(t, seedDoc), EffectiveFrom: jan}); err != nil {
		t.Fatalf("first seed: %v", err)
	}

	changed := `
fabrics:
  - code: "8823-05"
    fabricPricePerMeter: "32"
  - code: "7001-12"
    fabricPricePerMeter: "18.5"
    liningPricePerMeter: "6.00"
`
	stats, err := Run(database, Config{Path: writeSeed(t, changed), EffectiveFrom: jan.AddDate(0, 2, 0)})
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if stats.Inserts != 0 || stats.Updates != 1 {
		t.Fatalf("expected one update, got %+v", stats)
	}

	assertCount(t, database, `SELECT COUNT(*) FROM fabric_prices WHERE code = ?`, "8823-05", 2)
}

func TestRunRejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	database := openSeedDB(t)
	bad := "fabrics:\n  - code: velvet\n    fabricPricePerMeter: \"3\"\n  - code: \"1-1\"\n    fabricPricePerMeter: \"3\"\n"

	_, err := Run(database, Config{Path: writeSeed(t, bad)})
	if !errors.Is(err, catalog.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM fabric_prices`, nil, 0)

	if _, err := Run(database, Config{Path: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for a missing seed file")
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	if args == nil {
		err = database.QueryRow(query).Scan(&count)
	} else {
		err = database.QueryRow(query, args).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected %d rows, got %d (%s)", expected, count, query)
	}
}

func TestRunKeepsPricesAddedOutsideTheSeed(t *testing.T) {
	t.Parallel()

	database := openSeedDB(t)
	store := catalog.New(database, nil)
	ctx := context.Background()
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	path := writeSeed(t, seedDoc)

	if _, err := Run(database, Config{Path: path, EffectiveFrom: jan}); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if _, err := store.AddFabricPrice(ctx, catalog.FabricPrice{
		Code:                "8823-05",
		FabricPricePerMeter: decimal.NewFromInt(45),
		EffectiveFrom:       jan.AddDate(0, 0, 1),
	}); err != nil {
		t.Fatalf("add fabric price: %v", err)
	}
	if _, err := store.AddLiningPrice(ctx, catalog.LiningPrice{
		Name:          "普通衬布",
		PricePerMeter: decimal.NewFromInt(14),
		EffectiveFrom: jan.AddDate(0, 0, 1),
	}); err != nil {
		t.Fatalf("add lining price: %v", err)
	}

	stats, err := Run(database, Config{Path: path, EffectiveFrom: jan.AddDate(0, 0, 2)})
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if stats.Inserts != 0 || stats.Updates != 0 {
		t.Fatalf("expected no writes on restart, got %+v", stats)
	}

	asOf := jan.AddDate(0, 0, 3)
	prices, err := store.FabricPrices(ctx, asOf)
	if err != nil {
		t.Fatalf("fabric prices: %v", err)
	}
	for _, p := range prices {
		if p.Code == "8823-05" && !p.FabricPricePerMeter.Equal(decimal.NewFromInt(45)) {
			t.Fatalf("expected added price 45 to stay in effect, got %s", p.FabricPricePerMeter)
		}
	}
	linings, err := store.LiningPrices(ctx, asOf)
	if err != nil {
		t.Fatalf("lining prices: %v", err)
	}
	if got := linings["普通衬布"]; !got.Equal(decimal.NewFromInt(14)) {
		t.Fatalf("expected added lining price 14 to stay in effect, got %s", got)
	}
}

func TestRunSkipsCodesPricedOnlyOutsideTheSeed(t *testing.T) {
	t.Parallel()

	database := openSeedDB(t)
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := catalog.New(database, nil).AddFabricPrice(context.Background(), catalog.FabricPrice{
		Code:                "8823-05",
		FabricPricePerMeter: decimal.NewFromInt(45),
		EffectiveFrom:       jan,
	}); err != nil {
		t.Fatalf("add fabric price: %v", err)
	}

	stats, err := Run(database, Config{Path: writeSeed(t, seedDoc), EffectiveFrom: jan.AddDate(0, 1, 0)})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if stats.Inserts != 3 || stats.Updates != 0 {
		t.Fatalf("expected 3 inserts and no updates, got %+v", stats)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM fabric_prices WHERE code = ?`, "8823-05", 1)
}
