// Package stores provides the local submission ledger for the sf CLI.
// It includes SQLite-based storage with WAL mode, embedded migrations,
// and CRUD operations for submissions plus an append-only table of
// observed job status transitions. The ledger records what was submitted
// and last seen; it is bookkeeping, not a response cache.
package stores
