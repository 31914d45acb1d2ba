package recordstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/pkg/retry"
	"github.com/c360/wirestreams/record"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store writes records to a table whose columns follow the shape of the
// records it receives.
type Store struct {
	db      *sql.DB
	dialect *Dialect
	logger  *slog.Logger
	retry   retry.Config
	now     func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for schema changes and skipped fields.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetry replaces the retry policy around Insert.
func WithRetry(cfg retry.Config) Option {
	return func(s *Store) { s.retry = cfg }
}

// WithClock sets the time source for the TIMESTAMP column.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store over db using dialect.
func New(db *sql.DB, dialect *Dialect, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Store", "New", "database handle")
	}
	if dialect == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Store", "New", "dialect")
	}
	s := &Store{
		db:      db,
		dialect: dialect,
		logger:  slog.Default(),
		retry:   retry.Storage(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dialect returns the store's dialect.
func (s *Store) Dialect() *Dialect { return s.dialect }

// TableExists reports whether table exists.
func (s *Store) TableExists(ctx context.Context, q Querier, table string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, s.dialect.tableExists, table).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReconcileTable creates table with its TIMESTAMP column and descending
// TIMESTAMP index if it does not exist yet.
func (s *Store) ReconcileTable(ctx context.Context, q Querier, table string) error {
	exists, err := s.TableExists(ctx, q, table)
	if err != nil {
		return &errors.PersistenceError{Table: table, Op: "reconcile table", Err: err}
	}
	if exists {
		return nil
	}

	if _, err := q.ExecContext(ctx, s.dialect.createTableSQL(table)); err != nil {
		return &errors.PersistenceError{Table: table, Op: "create table", Err: err}
	}
	if _, err := q.ExecContext(ctx, s.dialect.createIndexSQL(table)); err != nil {
		return &errors.PersistenceError{Table: table, Op: "create index", Err: err}
	}
	s.logger.Info("Created record table", "table", table)
	return nil
}

// Columns returns the table's columns keyed by dialect column key, with
// their introspected types.
func (s *Store) Columns(ctx context.Context, q Querier, table string) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, s.dialect.columns, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, err
		}
		cols[s.dialect.columnKey(name)] = typ
	}
	return cols, rows.Err()
}

// ReconcileColumns makes the table's columns fit rec: missing columns are
// added, and a column whose type does not match the field's kind is dropped
// and added again with the right type. Running it twice changes nothing.
func (s *Store) ReconcileColumns(ctx context.Context, q Querier, table string, rec *record.Record) error {
	cols, err := s.Columns(ctx, q, table)
	if err != nil {
		return &errors.PersistenceError{Table: table, Op: "read columns", Err: err}
	}

	fields, _ := s.storable(rec)
	for _, f := range fields {
		want, ok := s.dialect.ColumnType(f.Value.Kind())
		if !ok {
			return &errors.PersistenceError{Table: table, Op: "reconcile columns",
				Err: errors.WrapInvalid(fmt.Errorf("field %q has no SQL type", f.Name), "Store", "ReconcileColumns", "type lookup")}
		}

		have, exists := cols[s.dialect.columnKey(f.Name)]
		switch {
		case !exists:
			if _, err := q.ExecContext(ctx, s.dialect.addColumnSQL(table, f.Name, want)); err != nil {
				return &errors.PersistenceError{Table: table, Op: "add column " + f.Name, Err: err}
			}
			s.logger.Debug("Added column", "table", table, "column", f.Name, "type", want.DDL)
		case !s.dialect.SameType(have, want):
			if _, err := q.ExecContext(ctx, s.dialect.dropColumnSQL(table, f.Name)); err != nil {
				return &errors.PersistenceError{Table: table, Op: "drop column " + f.Name, Err: err}
			}
			if _, err := q.ExecContext(ctx, s.dialect.addColumnSQL(table, f.Name, want)); err != nil {
				return &errors.PersistenceError{Table: table, Op: "add column " + f.Name, Err: err}
			}
			s.logger.Info("Replaced column with new type",
				"table", table, "column", f.Name, "old_type", have, "type", want.DDL)
		default:
			continue
		}
		cols[s.dialect.columnKey(f.Name)] = want.Name
	}
	return nil
}

// Insert writes records in one transaction, reconciling the table and each
// record's columns first. A transient failure rolls back and the whole
// transaction is tried again per the retry policy.
func (s *Store) Insert(ctx context.Context, table string, records []*record.Record) error {
	if len(records) == 0 {
		return nil
	}
	err := retry.Do(ctx, s.retry, func() error {
		return s.insertOnce(ctx, table, records)
	})
	if err == nil {
		return nil
	}
	var pe *errors.PersistenceError
	if stderrors.As(err, &pe) {
		return pe
	}
	return &errors.PersistenceError{Table: table, Op: "insert", Err: err}
}

func (s *Store) insertOnce(ctx context.Context, table string, records []*record.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &errors.PersistenceError{Table: table, Op: "begin", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err := s.ReconcileTable(ctx, tx, table); err != nil {
		return err
	}

	for _, rec := range records {
		if err := s.ReconcileColumns(ctx, tx, table, rec); err != nil {
			return err
		}

		fields, skipped := s.storable(rec)
		if len(skipped) > 0 {
			s.logger.Warn("Fields with reserved, empty or colliding names not stored",
				"table", table, "skipped", skipped, "fields", rec.Names())
		}
		columns := make([]string, 0, len(fields)+1)
		args := make([]any, 0, len(fields)+1)
		columns = append(columns, TimestampColumn)
		args = append(args, s.now().UnixMilli())
		for _, f := range fields {
			columns = append(columns, f.Name)
			args = append(args, f.Value.Raw())
		}

		if _, err := tx.ExecContext(ctx, s.dialect.insertSQL(table, columns), args...); err != nil {
			return &errors.PersistenceError{Table: table, Op: "insert", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &errors.PersistenceError{Table: table, Op: "commit", Err: err}
	}
	return nil
}

// Count returns the number of rows in table, or 0 if it does not exist.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	n, err := s.count(ctx, s.db, table)
	if err != nil {
		return 0, &errors.PersistenceError{Table: table, Op: "count", Err: err}
	}
	return n, nil
}

func (s *Store) count(ctx context.Context, q Querier, table string) (int, error) {
	exists, err := s.TableExists(ctx, q, table)
	if err != nil || !exists {
		return 0, err
	}
	var n int
	err = q.QueryRowContext(ctx, s.dialect.countSQL(table)).Scan(&n)
	return n, err
}

// Truncate removes old rows. keep 0 empties the table; otherwise all but the
// keep newest rows by TIMESTAMP are deleted. A missing table is left alone.
func (s *Store) Truncate(ctx context.Context, table string, keep int) (err error) {
	if keep < 0 {
		return errors.WrapInvalid(fmt.Errorf("keep must not be negative, got %d", keep), "Store", "Truncate", "argument check")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &errors.PersistenceError{Table: table, Op: "begin", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	n, err := s.count(ctx, tx, table)
	if err != nil {
		return &errors.PersistenceError{Table: table, Op: "count", Err: err}
	}
	if n > keep {
		if keep == 0 {
			_, err = tx.ExecContext(ctx, s.dialect.truncateSQL(table))
		} else {
			_, err = tx.ExecContext(ctx, s.dialect.pruneSQL(table), n-keep)
		}
		if err != nil {
			return &errors.PersistenceError{Table: table, Op: "truncate", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &errors.PersistenceError{Table: table, Op: "commit", Err: err}
	}
	if n > keep {
		s.logger.Info("Truncated record table", "table", table, "deleted", n-keep, "kept", keep)
	}
	return nil
}

// storable returns the fields that map to columns and the names of those
// that do not. A field named like the TIMESTAMP column is skipped. Fields
// whose names share a column key collapse into one holding the last value.
func (s *Store) storable(rec *record.Record) (fields []record.Field, skipped []string) {
	reserved := s.dialect.columnKey(TimestampColumn)
	byKey := make(map[string]int, rec.Len())
	for _, f := range rec.Fields() {
		key := s.dialect.columnKey(f.Name)
		if f.Name == "" || key == reserved {
			skipped = append(skipped, f.Name)
			continue
		}
		if i, ok := byKey[key]; ok {
			skipped = append(skipped, fields[i].Name)
			fields[i] = f
			continue
		}
		byKey[key] = len(fields)
		fields = append(fields, f)
	}
	return fields, skipped
}
