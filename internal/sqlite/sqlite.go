// Package sqlite opens SQLite databases with the driver selected at build
// time: pure Go modernc.org/sqlite by default, mattn/go-sqlite3 with
// -tags cgo_sqlite.
package sqlite

import "database/sql"

// DriverName returns the database/sql driver name in use.
func DriverName() string {
	return driverName
}

// IsCGO reports whether the CGO driver is compiled in.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a database at path. Foreign keys are left at the driver default.
func Open(path string) (*sql.DB, error) {
	return sql.Open(driverName, path)
}
