// Package dialect holds the database dialect names known to the
// schemagen runtime.
//
// The generated scripts and services target PostgreSQL only:
//
//	dialect.Postgres = "postgres"
//
// # Sub-packages
//
//   - dialect/sql: the runtime contract generated services call into,
//     with a sqlx-backed implementation
package dialect
