// Package sql is the runtime contract the generated data-access services
// call into, with a PostgreSQL implementation backed by sqlx and lib/pq.
//
// # Executor
//
// Generated services depend on the Executor interface only:
//
//	type Executor interface {
//	    Get(ctx context.Context, dest any, query string, args ...any) error
//	    Select(ctx context.Context, dest any, query string, args ...any) error
//	    Exec(ctx context.Context, query string, args ...any) (Result, error)
//	    Batch(ctx context.Context, stmts []Statement, read func(BatchReader) error) error
//	}
//
// Driver implements it over a *sqlx.DB:
//
//	drv, err := sql.Open("postgres://localhost/manga?sslmode=disable")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//	services := models.NewServices(drv)
//
// # Batches
//
// A batch runs its statements in one read-only transaction. The reader
// pulls result sets in emission order and each read executes the next
// statement, so a reader returning early (e.g. on a missing root row)
// issues no further statements:
//
//	err := ex.Batch(ctx, stmts, func(r sql.BatchReader) error {
//	    if err := r.One(&root); err != nil {
//	        return err
//	    }
//	    return r.Many(&children)
//	})
//
// # Relations
//
// Rows loaded alongside a root row are folded into a type-keyed
// Relations collection:
//
//	loaded := sql.NewLoaded(&manga)
//	sql.Attach(loaded.Relations, chapters...)
//	chapters := sql.Related[models.Chapter](loaded.Relations)
//
// # Errors
//
// Get and BatchReader.One return ErrNoRows when no row matches. Constraint
// violations reported by PostgreSQL are converted to
// schemagen.ConstraintError.
package sql
