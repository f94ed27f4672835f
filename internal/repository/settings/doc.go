// Package settings persists the engine's string settings.
//
// Two backends implement Store: SQLiteStore keeps a key-value table in a
// SQLite database migrated with golang-migrate, FileStore keeps a JSON object
// on disk. Open selects one from the configuration.
package settings
