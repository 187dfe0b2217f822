// Package config provides database configuration for bookstore integration tests.
//
// It contains factory functions for connecting to the test MongoDB and PostgreSQL instances,
// the latter through each supported adapter (pgx.Pool, sql.DB, sqlx.DB). The default
// connection strings can be overridden with BOOKSTORE_MONGO_URI and BOOKSTORE_POSTGRES_DSN.
package config
