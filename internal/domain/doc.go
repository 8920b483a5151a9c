// Package domain contains the core entities of the scheduling application:
// users, sessions, the course catalog, and schedule documents. Entities are
// created through constructors that validate their invariants and carry no
// persistence concerns.
package domain
