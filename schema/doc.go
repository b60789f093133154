// Package schema provides the markers domain models use to describe their
// database shape to the schemagen compiler.
//
// A model opts in by implementing [Definer]. The returned [Definition]
// flags the model either as a relational table or as a composite SQL type,
// and carries the table-level markers (aliases, audit, search groups,
// bridges). Column-level markers live in struct tags.
//
// # Quick Start
//
//	type Manga struct {
//	    ID       uuid.UUID     `db:"id,pk"`
//	    Title    string        `db:"title,required"`
//	    Titles   []MangaTitle  `db:"alt_titles"`
//	    SourceID uuid.UUID     `db:"source_id,unique=source" fk:"Source"`
//	    Rating   *float64      `db:"rating,version=2"`
//	    Created  time.Time     `db:"created_at,ignore" default:"now()"`
//	}
//
//	func (Manga) Schema() *schema.Definition {
//	    return schema.Table().
//	        Alias("manga").
//	        Search("search_vector", "english", "title", "alt_titles")
//	}
//
// # Struct Tags
//
// The db tag names the column and lists comma separated options:
//
//	pk            primary key column
//	required      NOT NULL regardless of the Go type
//	unique        single column uniqueness
//	unique=group  member of a named (possibly multi-column) unique group
//	version=N     column introduced in schema version N (0 is baseline)
//	ignore        column is read but never written by data-access code
//	join=fn       composite attributes only: generate the array-join
//	              function fn projecting this attribute
//
// A field without a db tag, or with db:"-", is not a column. Anonymous
// struct fields without a db tag are flattened into the owner.
//
// The fk tag declares a foreign key, "Target" or "Target.column", with an
// optional ",norel" suffix that keeps the key out of relationship inference.
// The target column defaults to "id".
//
// The default tag holds a raw SQL default literal, e.g. default:"now()".
//
// # Type Mapping
//
//	string                text
//	int, int32, uint16    integer
//	int64, uint, uint32+  bigint
//	int16                 smallint
//	int8, uint8           tinyint (stored as smallint)
//	bool                  boolean
//	float32, float64      numeric
//	decimal.Decimal       decimal
//	time.Time             timestamp
//	uuid.UUID             uuid
//	named integer types   integer (enumerations)
//	other structs         composite type reference
//	*T                    nullable T
//	[]T                   array of T
package schema
