// Package recordstore provides the record-store component and the Store that
// backs it: a SQL table whose schema follows the records written to it.
//
// # Schema reconciliation
//
// Every table starts with a single TIMESTAMP column (BIGINT, unix
// milliseconds) and a descending index named <table>_TIMESTAMP. Before a
// record is inserted each of its fields is checked against the table:
//
//   - missing column: ALTER TABLE ... ADD COLUMN with the field's type
//   - column of another type: the column is dropped and added again, so
//     previously stored values of that field are lost
//   - matching column: nothing happens
//
// Column types per value kind come from the Dialect: SQLite, Postgres (lib/pq
// and pgx drivers) and MySQL are supported.
//
// # Retention
//
// When the table holds maximum.table.size rows or more, the component first
// deletes all but the newest min(cleanup.records.keep, maximum.table.size)
// rows, then inserts.
//
//	{"id": "store", "kind": "record-store", "properties": {
//	    "table.name": "WR_data",
//	    "maximum.table.size": 10000,
//	    "cleanup.records.keep": 5000
//	}}
package recordstore
