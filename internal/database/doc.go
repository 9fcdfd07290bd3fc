// Package database provides the PostgreSQL connection pool used by the
// session event journal.
//
// The pool is optional: walletd only connects when database.host is set.
package database
