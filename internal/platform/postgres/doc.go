// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store. All implementations accept a
// store.DBTX, so they work over a plain connection or within a transaction.
package postgres
