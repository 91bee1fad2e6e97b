// Package sqlite persists experiment sessions and trial attempt records in
// a SQLite database. The schema is embedded and migrated with
// golang-migrate when the database is opened.
package sqlite
