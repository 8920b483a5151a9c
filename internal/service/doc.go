// Package service contains the application services that orchestrate domain
// entities, stores, and background tasks. Services own transaction
// boundaries and translate between store errors and caller-facing ones.
package service
