package script

import (
	"fmt"
	"strings"

	"github.com/mangaloom/schemagen/compiler/gen"
)

// Table renders the script of table t for the given version cutoff.
//
// Baseline columns form the CREATE TABLE body. Columns introduced at a
// version in (0, cutoff] are appended as ADD COLUMN IF NOT EXISTS
// statements, so the same script upgrades an existing table. Columns
// introduced after the cutoff are omitted.
func Table(t *gen.Type, version int) (string, error) {
	if !t.IsTable() {
		return "", gen.NewSchemaError(t.Name, "", "not a table", nil)
	}
	var (
		body    []string
		trailer []string
		table   = ident(t.Table())
		single  = t.ID() != nil
		inline  = inlineUnique(t, version)
	)
	addColumn := func(c *gen.Column, def string) {
		if c.Baseline() {
			body = append(body, def)
			return
		}
		trailer = append(trailer, fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s;", table, def))
	}
	for _, c := range t.Included(version) {
		def, err := column(c, single, inline[c])
		if err != nil {
			return "", gen.NewSchemaError(t.Name, c.Name, "", err)
		}
		addColumn(c, def)
	}
	for _, s := range t.Search {
		def, fields, err := searchColumn(t, s, version)
		switch {
		case err != nil:
			return "", err
		case def == "":
		case baseline(fields):
			body = append(body, def)
		default:
			trailer = append(trailer, rebuildSearch(t, s.Column, def, fields))
		}
	}
	if pk := t.PrimaryKey(); len(pk) > 1 {
		body = append(body, fmt.Sprintf("PRIMARY KEY (%s)", idents(columnNames(pk)...)))
	}
	for _, g := range t.UniqueGroups() {
		cols := includedColumns(g.Columns, version)
		if len(cols) < 2 {
			continue
		}
		def := fmt.Sprintf("UNIQUE%s (%s)", nullsNotDistinct(cols...), idents(columnNames(cols)...))
		if baseline(cols) {
			body = append(body, "CONSTRAINT "+ident(constraintName(t.Table(), g.Name))+" "+def)
			continue
		}
		trailer = append(trailer, rebuildUnique(t, g, len(cols), def))
	}
	if a := t.Audit; a != nil {
		disc, _ := t.Column(a.Discriminator)
		tid, _ := t.Column(a.TargetID)
		if disc.IncludedIn(version) && tid.IncludedIn(version) {
			trailer = append(trailer, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);",
				ident(indexName(t.Table(), disc.Name, tid.Name)), table, idents(disc.Name, tid.Name)))
		}
	}

	var b strings.Builder
	b.WriteString("CREATE ")
	if t.Cache {
		b.WriteString("UNLOGGED ")
	}
	fmt.Fprintf(&b, "TABLE IF NOT EXISTS %s (\n\t%s\n);\n", table, strings.Join(body, ",\n\t"))
	for _, stmt := range trailer {
		b.WriteString("\n")
		b.WriteString(stmt)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// column renders the definition of c. single reports if the table has a
// single-column primary key, unique if the column carries an inline
// unique constraint.
func column(c *gen.Column, single, unique bool) (string, error) {
	typ, err := c.SQLType()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(ident(c.Name))
	b.WriteString(" ")
	b.WriteString(typ)
	switch {
	case c.PK && single:
		b.WriteString(" PRIMARY KEY")
	case !c.Nullable():
		b.WriteString(" NOT NULL")
	}
	switch {
	case c.Default != "":
		b.WriteString(" DEFAULT " + c.Default)
	case c.PK && single && c.IsUUID() && c.FK == nil:
		b.WriteString(" DEFAULT gen_random_uuid()")
	case c.IsArray():
		b.WriteString(" DEFAULT '{}'")
	}
	if unique {
		b.WriteString(" UNIQUE" + nullsNotDistinct(c))
	}
	if fk := c.FK; fk != nil {
		target := gen.Snake(fk.Type)
		if fk.Target != nil {
			target = fk.Target.Table()
		}
		fmt.Fprintf(&b, " REFERENCES %s (%s)", ident(target), ident(fk.Column))
	}
	return b.String(), nil
}

// searchColumn renders the generated tsvector column of s and returns the
// included fields it indexes. The definition is empty when none of its
// fields is included.
func searchColumn(t *gen.Type, s *gen.Search, version int) (string, []*gen.Column, error) {
	var (
		terms  []string
		fields []*gen.Column
	)
	for _, name := range s.Fields {
		c, ok := t.Column(name)
		if !ok {
			return "", nil, gen.NewSchemaError(t.Name, s.Column, fmt.Sprintf("search field %q is not a column", name), nil)
		}
		if !c.IncludedIn(version) {
			continue
		}
		term, err := searchTerm(c)
		if err != nil {
			return "", nil, gen.NewSchemaError(t.Name, c.Name, "", err)
		}
		terms = append(terms, "coalesce("+term+", '')")
		fields = append(fields, c)
	}
	if len(terms) == 0 {
		return "", nil, nil
	}
	return fmt.Sprintf("%s tsvector GENERATED ALWAYS AS (to_tsvector(%s::regconfig, %s)) STORED",
		ident(s.Column), literal(s.Language), strings.Join(terms, " || ' ' || ")), fields, nil
}

// searchTerm returns the text expression indexing c.
func searchTerm(c *gen.Column) (string, error) {
	switch {
	case c.Kind == gen.ArrayComposite:
		if c.RefType == nil {
			return "", fmt.Errorf("unknown composite type %q", c.Ref)
		}
		if c.RefType.Join == nil {
			return "", fmt.Errorf("array of %s has no join function for full-text search", c.RefType.Name)
		}
		return fmt.Sprintf("%s(%s, ' ')", ident(c.RefType.Join.Function), ident(c.Name)), nil
	case c.IsArray() || c.IsComposite():
		return "", fmt.Errorf("%s column has no join strategy for full-text search", c.Kind)
	case c.IsText():
		return ident(c.Name), nil
	default:
		return ident(c.Name) + "::text", nil
	}
}

// inlineUnique returns the columns carrying an inline unique constraint:
// unique columns, and the only included member of a unique group.
func inlineUnique(t *gen.Type, version int) map[*gen.Column]bool {
	inline := make(map[*gen.Column]bool)
	for _, c := range t.Columns {
		if c.Unique {
			inline[c] = true
		}
	}
	for _, g := range t.UniqueGroups() {
		if cols := includedColumns(g.Columns, version); len(cols) == 1 {
			inline[cols[0]] = true
		}
	}
	return inline
}

// nullsNotDistinct returns the modifier treating NULLs as equal when any
// of the columns is optional.
func nullsNotDistinct(cols ...*gen.Column) string {
	for _, c := range cols {
		if c.Nullable() {
			return " NULLS NOT DISTINCT"
		}
	}
	return ""
}

// guarded wraps stmt in a DO block ignoring the given error conditions.
func guarded(stmt string, conditions ...string) string {
	return fmt.Sprintf("DO $$\nBEGIN\n\t%s\nEXCEPTION\n\tWHEN %s THEN NULL;\nEND\n$$;", stmt, strings.Join(conditions, " OR "))
}

// rebuildUnique adds the key of a unique group whose members were not all
// present at the baseline. An earlier shape, the inline key of a lone
// member or a group key over fewer columns, is dropped first. Once the key
// spans all n columns the block does nothing.
func rebuildUnique(t *gen.Type, g *gen.UniqueGroup, n int, def string) string {
	var (
		b     strings.Builder
		table = ident(t.Table())
		name  = constraintName(t.Table(), g.Name)
	)
	fmt.Fprintf(&b, "DO $$\nBEGIN\n\tIF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conrelid = %s::regclass AND conname = %s AND cardinality(conkey) = %d) THEN\n",
		literal(table), literal(name), n)
	if lone := loneMember(g.Columns); lone != nil {
		fmt.Fprintf(&b, "\t\tALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;\n", table, ident(constraintName(t.Table(), lone.Name)))
	}
	fmt.Fprintf(&b, "\t\tALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;\n", table, ident(name))
	fmt.Fprintf(&b, "\t\tALTER TABLE %s ADD CONSTRAINT %s %s;\n", table, ident(name), def)
	b.WriteString("\tEND IF;\nEND\n$$;")
	return b.String()
}

// loneMember returns the member of a group that is included alone at some
// cutoff, the only one introduced at the earliest version, or nil.
func loneMember(cols []*gen.Column) *gen.Column {
	var (
		lone *gen.Column
		tie  bool
	)
	for _, c := range cols {
		switch {
		case lone == nil || c.Version < lone.Version:
			lone, tie = c, false
		case c.Version == lone.Version:
			tie = true
		}
	}
	if tie {
		return nil
	}
	return lone
}

// rebuildSearch adds a search column indexing a versioned field. Generated
// columns cannot be altered, so a column created over other fields is
// dropped and added again. The column comment records the indexed fields.
func rebuildSearch(t *gen.Type, column, def string, fields []*gen.Column) string {
	table := ident(t.Table())
	mark := literal(strings.Join(columnNames(fields), ","))
	return fmt.Sprintf("DO $$\nBEGIN\n"+
		"\tIF col_description(%[1]s::regclass, (SELECT attnum FROM pg_attribute WHERE attrelid = %[1]s::regclass AND attname = %[2]s)) IS DISTINCT FROM %[3]s THEN\n"+
		"\t\tALTER TABLE %[4]s DROP COLUMN IF EXISTS %[5]s;\n"+
		"\t\tALTER TABLE %[4]s ADD COLUMN %[6]s;\n"+
		"\t\tCOMMENT ON COLUMN %[4]s.%[5]s IS %[3]s;\n"+
		"\tEND IF;\nEND\n$$;",
		literal(table), literal(column), mark, table, ident(column), def)
}

func includedColumns(cols []*gen.Column, version int) []*gen.Column {
	var out []*gen.Column
	for _, c := range cols {
		if c.IncludedIn(version) {
			out = append(out, c)
		}
	}
	return out
}

func baseline(cols []*gen.Column) bool {
	for _, c := range cols {
		if !c.Baseline() {
			return false
		}
	}
	return true
}

func columnNames(cols []*gen.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// constraintName names the unique constraint of a group.
func constraintName(table, group string) string {
	return table + "_" + group + "_key"
}

func indexName(table string, columns ...string) string {
	return table + "_" + strings.Join(columns, "_") + "_idx"
}
