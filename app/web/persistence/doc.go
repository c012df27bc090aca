// Package persistence provides task storage for the web server.
// SQLStore keeps tasks in a SQL database, SQLite (with WAL mode) by default
// or PostgreSQL when the DSN has a postgres scheme. Client wraps the store
// with lazy, retried connection setup and is meant to be created once per process.
package persistence
