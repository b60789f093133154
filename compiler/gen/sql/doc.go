// Package sql generates the data-access layer of a resolved entity graph.
//
// Every table gets a service: an interface (the contract) listing its
// methods and an unexported implementation running statically built
// PostgreSQL statements through the runtime Executor of
// github.com/mangaloom/schemagen/dialect/sql.
//
//	Fetch(ctx, id)                  single-column primary key only
//	Insert(ctx, row)                returns the new id when there is one
//	Update(ctx, row)                single-column primary key only
//	Upsert(ctx, row)                with a unique column or unique group
//	All(ctx)                        soft-deleted rows excluded
//	FetchWithRelationships(ctx, id) when the table takes part in a relation
//
// FetchWithRelationships runs one read-only batch: the root row first,
// then one statement per relation in resolution order. A missing root
// row stops the batch with a not-found error.
//
// Generated layout:
//
//	{target}/
//	├── {prefix}{table}_service.go  # contract + implementation per table
//	├── services.go                 # Services aggregate and NewServices
//	└── register.go                 # Register: composites, services, enums
//
// Usage:
//
//	g, err := gen.NewGraph(cfg, schemas...)
//	if err != nil {
//	    return err
//	}
//	err = sql.Generate(g, sql.Options{
//	    Target:  "internal/store",
//	    Package: "github.com/mangaloom/api/internal/store",
//	})
package sql
