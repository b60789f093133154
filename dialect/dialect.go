package dialect

// Postgres is the PostgreSQL dialect and the lib/pq driver name.
const Postgres = "postgres"
