package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var migrationFS embed.FS

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	log *zap.SugaredLogger
}

// Printf logs goose status lines at info and executed SQL at debug.
func (l gooseLogger) Printf(format string, v ...any) {
	if strings.HasPrefix(format, "goose:") {
		l.log.Infof(format, v...)
		return
	}
	l.log.Debugf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) { l.log.Fatalf(format, v...) }

func newProvider(db *sql.DB, log *zap.Logger) (*goose.Provider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsys, err := fs.Sub(migrationFS, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys,
		goose.WithLogger(gooseLogger{log: log.Sugar()}),
		goose.WithVerbose(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create goose provider: %w", err)
	}
	return p, nil
}

// Up runs all pending embedded SQL migrations, logging progress to log.
// A nil log discards the output.
func Up(db *sql.DB, log *zap.Logger) error {
	p, err := newProvider(db, log)
	if err != nil {
		return err
	}
	if _, err := p.Up(context.Background()); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

// Version returns the current schema version.
func Version(db *sql.DB) (int64, error) {
	p, err := newProvider(db, nil)
	if err != nil {
		return 0, err
	}
	v, err := p.GetDBVersion(context.Background())
	if err != nil {
		return 0, fmt.Errorf("read goose version: %w", err)
	}
	return v, nil
}
