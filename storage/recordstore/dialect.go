package recordstore

import (
	"fmt"
	"strings"

	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/typed"
)

// TimestampColumn is the baseline column every record table has: insertion
// time in unix milliseconds.
const TimestampColumn = "TIMESTAMP"

// ColumnType is the SQL type used for one value kind: DDL is written in
// CREATE/ALTER statements, Name is what column introspection reports for it.
type ColumnType struct {
	DDL  string
	Name string
}

// Dialect holds the SQL that differs between database engines.
type Dialect struct {
	Name string

	// FoldCase is set when the engine treats column names case-insensitively.
	FoldCase bool

	quote       func(ident string) string
	placeholder func(n int) string
	types       map[typed.Kind]ColumnType
	timestamp   ColumnType

	tableExists string // one parameter: table name; returns a count
	columns     string // one parameter: table name; returns name, type rows
	truncate    string // %[1]s table
	prune       string // %[1]s table, %[2]s timestamp column, %[3]s placeholder for rows to delete
}

// Quote returns ident as a quoted identifier.
func (d *Dialect) Quote(ident string) string { return d.quote(ident) }

// Placeholder returns the n-th (1-based) bind parameter marker.
func (d *Dialect) Placeholder(n int) string { return d.placeholder(n) }

// ColumnType returns the column type for values of kind.
func (d *Dialect) ColumnType(kind typed.Kind) (ColumnType, bool) {
	ct, ok := d.types[kind]
	return ct, ok
}

// TimestampType returns the type of the baseline timestamp column.
func (d *Dialect) TimestampType() ColumnType { return d.timestamp }

// SameType reports whether an introspected column type matches want.
func (d *Dialect) SameType(introspected string, want ColumnType) bool {
	return strings.EqualFold(strings.TrimSpace(introspected), want.Name)
}

func (d *Dialect) columnKey(name string) string {
	if d.FoldCase {
		return strings.ToLower(name)
	}
	return name
}

func (d *Dialect) createTableSQL(table string) string {
	return fmt.Sprintf("CREATE TABLE %s (%s %s NOT NULL)", d.Quote(table), d.Quote(TimestampColumn), d.timestamp.DDL)
}

func (d *Dialect) createIndexSQL(table string) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s DESC)",
		d.Quote(table+"_"+TimestampColumn), d.Quote(table), d.Quote(TimestampColumn))
}

func (d *Dialect) addColumnSQL(table, column string, ct ColumnType) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", d.Quote(table), d.Quote(column), ct.DDL)
}

func (d *Dialect) dropColumnSQL(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.Quote(table), d.Quote(column))
}

func (d *Dialect) countSQL(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.Quote(table))
}

func (d *Dialect) truncateSQL(table string) string {
	return fmt.Sprintf(d.truncate, d.Quote(table))
}

func (d *Dialect) pruneSQL(table string) string {
	return fmt.Sprintf(d.prune, d.Quote(table), d.Quote(TimestampColumn), d.Placeholder(1))
}

func (d *Dialect) insertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
		marks[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
}

func doubleQuote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func backtick(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func question(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

// SQLite stores the declared type verbatim, so Name equals DDL.
var SQLite = &Dialect{
	Name:        "sqlite",
	FoldCase:    true,
	quote:       doubleQuote,
	placeholder: question,
	types: map[typed.Kind]ColumnType{
		typed.KindBoolean:   {DDL: "BOOLEAN", Name: "BOOLEAN"},
		typed.KindByte:      {DDL: "TINYINT", Name: "TINYINT"},
		typed.KindShort:     {DDL: "SMALLINT", Name: "SMALLINT"},
		typed.KindInteger:   {DDL: "INTEGER", Name: "INTEGER"},
		typed.KindLong:      {DDL: "BIGINT", Name: "BIGINT"},
		typed.KindFloat:     {DDL: "REAL", Name: "REAL"},
		typed.KindDouble:    {DDL: "DOUBLE", Name: "DOUBLE"},
		typed.KindString:    {DDL: "TEXT", Name: "TEXT"},
		typed.KindByteArray: {DDL: "BLOB", Name: "BLOB"},
	},
	timestamp:   ColumnType{DDL: "BIGINT", Name: "BIGINT"},
	tableExists: "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
	columns:     "SELECT name, type FROM pragma_table_info(?)",
	truncate:    "DELETE FROM %[1]s",
	prune:       "DELETE FROM %[1]s WHERE rowid IN (SELECT rowid FROM %[1]s ORDER BY %[2]s ASC, rowid ASC LIMIT %[3]s)",
}

// Postgres serves both the lib/pq ("postgres") and pgx ("pgx") drivers.
var Postgres = &Dialect{
	Name:        "postgres",
	quote:       doubleQuote,
	placeholder: dollar,
	types: map[typed.Kind]ColumnType{
		typed.KindBoolean:   {DDL: "BOOLEAN", Name: "boolean"},
		typed.KindByte:      {DDL: "SMALLINT", Name: "smallint"},
		typed.KindShort:     {DDL: "SMALLINT", Name: "smallint"},
		typed.KindInteger:   {DDL: "INTEGER", Name: "integer"},
		typed.KindLong:      {DDL: "BIGINT", Name: "bigint"},
		typed.KindFloat:     {DDL: "REAL", Name: "real"},
		typed.KindDouble:    {DDL: "DOUBLE PRECISION", Name: "double precision"},
		typed.KindString:    {DDL: "TEXT", Name: "text"},
		typed.KindByteArray: {DDL: "BYTEA", Name: "bytea"},
	},
	timestamp: ColumnType{DDL: "BIGINT", Name: "bigint"},
	tableExists: "SELECT COUNT(*) FROM information_schema.tables " +
		"WHERE table_schema = current_schema() AND table_name = $1",
	columns: "SELECT column_name, data_type FROM information_schema.columns " +
		"WHERE table_schema = current_schema() AND table_name = $1",
	truncate: "TRUNCATE TABLE %[1]s",
	prune:    "DELETE FROM %[1]s WHERE ctid IN (SELECT ctid FROM %[1]s ORDER BY %[2]s ASC LIMIT %[3]s)",
}

// MySQL reports BOOLEAN columns as tinyint.
var MySQL = &Dialect{
	Name:        "mysql",
	FoldCase:    true,
	quote:       backtick,
	placeholder: question,
	types: map[typed.Kind]ColumnType{
		typed.KindBoolean:   {DDL: "BOOLEAN", Name: "tinyint"},
		typed.KindByte:      {DDL: "TINYINT", Name: "tinyint"},
		typed.KindShort:     {DDL: "SMALLINT", Name: "smallint"},
		typed.KindInteger:   {DDL: "INT", Name: "int"},
		typed.KindLong:      {DDL: "BIGINT", Name: "bigint"},
		typed.KindFloat:     {DDL: "FLOAT", Name: "float"},
		typed.KindDouble:    {DDL: "DOUBLE", Name: "double"},
		typed.KindString:    {DDL: "TEXT", Name: "text"},
		typed.KindByteArray: {DDL: "BLOB", Name: "blob"},
	},
	timestamp: ColumnType{DDL: "BIGINT", Name: "bigint"},
	tableExists: "SELECT COUNT(*) FROM information_schema.tables " +
		"WHERE table_schema = DATABASE() AND table_name = ?",
	columns: "SELECT column_name, data_type FROM information_schema.columns " +
		"WHERE table_schema = DATABASE() AND table_name = ?",
	truncate: "TRUNCATE TABLE %[1]s",
	prune:    "DELETE FROM %[1]s ORDER BY %[2]s ASC LIMIT %[3]s",
}

// DialectFor returns the dialect for a database/sql driver name.
func DialectFor(driver string) (*Dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	}
	return nil, errors.WrapInvalid(fmt.Errorf("no SQL dialect for driver %q", driver),
		"recordstore", "DialectFor", "driver lookup")
}
