// Package metadata is a small key/value store in the local SQLite database.
// credctl keeps its session under fixed keys here.
package metadata
