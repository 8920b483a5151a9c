// Package store defines the persistence interfaces of the application along
// with shared error types and transaction helpers. Concrete implementations
// live in internal/platform/postgres.
package store
