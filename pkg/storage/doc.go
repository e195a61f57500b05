// Package storage provides storage implementations for job persistence.
//
// This package includes:
//   - GormStore: a GORM-based store for PostgreSQL and SQLite
//   - MemoryStore: an in-process store with staged transactions
//   - Open: builds a GormStore from a database URL with pool settings
//
// The Store, Conn and Tx interfaces are defined in pkg/core and must be
// implemented by any custom storage backend.
package storage
