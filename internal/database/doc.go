// Package database provides SQLite-based storage for rtps.
//
// This package implements the Store, which persists:
//   - The safe and unsafe host lists consulted by the classifier
//   - The detected-phishing log, deduplicated by exact URL
//   - Engine settings (enabled, notifications, redirect levels, language)
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. The data set is small and written rarely
//
// Per-tab navigation state is deliberately not persisted; it lives in
// memory in the tabstate package and dies with the process.
package database
