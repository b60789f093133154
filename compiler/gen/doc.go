// Package gen builds the entity graph the schemagen generators consume.
//
// The pipeline is:
//
//	Model definitions (schema.Definer values or YAML documents)
//	        ↓
//	   load.Schema descriptors
//	        ↓
//	   Extractor: NewType builds one Type per descriptor
//	        ↓
//	   Resolver: bridges, one-to-many and audit candidate sets
//	        ↓
//	   Orderer: dependency-safe creation order
//	        ↓
//	   Graph, consumed by compiler/gen/script and compiler/gen/sql
//
// # Key Types
//
//   - Graph: entities, relations and the resolved creation order
//   - Type: a table or composite type with its columns and markers
//   - Column: a typed column with flags, foreign key and version
//   - Relation: one of *OneToMany, *Bridge or *AuditSet
//   - Config: logger, soft-delete column and file header
//
// # Error Handling
//
// The package uses structured error types:
//
//   - SchemaError: invalid definitions, fatal for the owning entity
//   - ConfigError: invalid options
//   - RelationError: unresolvable relations, logged and skipped
//   - GraphError: the orderer made no progress, fatal for the run
//   - GenerationError: rendering or formatting failures
//
// Example error handling:
//
//	graph, err := gen.NewGraph(config, schemas...)
//	if err != nil {
//	    var gerr *gen.GraphError
//	    if errors.As(err, &gerr) {
//	        // gerr.Stuck lists every blocked entity and its requirements
//	    }
//	    return err
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	config, err := gen.NewConfig(
//	    gen.WithLogger(logger),
//	    gen.WithSoftDeleteColumn("deleted_at"),
//	)
//
// # Code Organization
//
//   - errors.go: Structured error types
//   - graph.go: Graph construction, lookups and the Generator interface
//   - option.go: Config and functional options
//   - order.go: Dependency orderer
//   - type.go: Type definition and methods
//   - type_field.go: Column definition and SQL type resolution
//   - type_edge.go: Relations and the resolver
//   - type_helpers.go: Naming helpers
//   - writer.go: Buffered file output and Go formatting
package gen
