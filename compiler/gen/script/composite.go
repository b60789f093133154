package script

import (
	"fmt"
	"strings"

	"github.com/mangaloom/schemagen/compiler/gen"
)

// Composite renders the script of composite type t. CREATE TYPE has no
// IF NOT EXISTS form, so the statement is wrapped in a DO block ignoring
// duplicate_object. Attributes introduced after baseline are added in
// the same way.
func Composite(t *gen.Type, version int) (string, error) {
	if !t.IsComposite() {
		return "", gen.NewSchemaError(t.Name, "", "not a composite type", nil)
	}
	var (
		attrs   []string
		trailer []string
		name    = ident(t.Table())
	)
	for _, c := range t.Included(version) {
		typ, err := c.SQLType()
		if err != nil {
			return "", gen.NewSchemaError(t.Name, c.Name, "", err)
		}
		def := ident(c.Name) + " " + typ
		if c.Baseline() {
			attrs = append(attrs, def)
			continue
		}
		trailer = append(trailer, guarded(fmt.Sprintf("ALTER TYPE %s ADD ATTRIBUTE %s;", name, def), "duplicate_column"))
	}
	if len(attrs) == 0 {
		return "", gen.NewSchemaError(t.Name, "", "composite type has no baseline attributes", nil)
	}
	var b strings.Builder
	b.WriteString(guarded(fmt.Sprintf("CREATE TYPE %s AS (\n\t\t%s\n\t);", name, strings.Join(attrs, ",\n\t\t")), "duplicate_object"))
	b.WriteString("\n")
	for _, stmt := range trailer {
		b.WriteString("\n")
		b.WriteString(stmt)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// JoinFunction renders the array-join function of composite type t: it
// takes an array of t and a separator and returns the non-null values of
// the join column, joined by the separator.
func JoinFunction(t *gen.Type) (string, error) {
	if t.Join == nil {
		return "", gen.NewSchemaError(t.Name, "", "no join directive", nil)
	}
	value := "i." + ident(t.Join.Column.Name)
	if !t.Join.Column.IsText() {
		value = "(" + value + ")::text"
	}
	return fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s(items %s[], sep text)
RETURNS text
LANGUAGE sql
IMMUTABLE
AS $$
	SELECT string_agg(%s, sep)
	FROM unnest(items) AS i
	WHERE i.%s IS NOT NULL
$$;
`, ident(t.Join.Function), ident(t.Table()), value, ident(t.Join.Column.Name)), nil
}

// Drop renders the teardown script: the reverse of the creation order,
// every composite type preceded by its array-join function.
func Drop(g *gen.Graph) string {
	var b strings.Builder
	for _, t := range g.Teardown() {
		if t.IsTable() {
			fmt.Fprintf(&b, "DROP TABLE IF EXISTS %s;\n", ident(t.Table()))
			continue
		}
		if t.Join != nil {
			fmt.Fprintf(&b, "DROP FUNCTION IF EXISTS %s(%s[], text);\n", ident(t.Join.Function), ident(t.Table()))
		}
		fmt.Fprintf(&b, "DROP TYPE IF EXISTS %s;\n", ident(t.Table()))
	}
	return b.String()
}
