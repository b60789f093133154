package schema

import "reflect"

// Definer is implemented by domain models that map onto the database.
type Definer interface {
	Schema() *Definition
}

// Kind tells whether a definition maps to a table or to a composite type.
type Kind uint8

// Definition kinds.
const (
	KindTable Kind = iota + 1
	KindType
)

// String returns the kind name used in schema documents.
func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindType:
		return "type"
	default:
		return "invalid"
	}
}

type (
	// Definition holds the model-level markers of a table or composite type.
	Definition struct {
		Kind     Kind
		Name     string
		Prefix   string
		Cache    bool
		Aliases  []string
		Audit    *Audit
		Searches []*Search
		Bridges  []*Bridge
	}

	// Audit marks a table as a polymorphic change log. Discriminator names
	// the column holding the target alias, TargetID the column holding the
	// target primary key.
	Audit struct {
		Discriminator string
		TargetID      string
	}

	// Search declares one generated full-text search column.
	Search struct {
		Column   string
		Language string
		Fields   []string
	}

	// Bridge marks a table as the many-to-many association between Parent
	// and Child. Both hold model type names.
	Bridge struct {
		Parent string
		Child  string
	}
)

// Table returns a definition for a model stored in a relational table.
func Table() *Definition {
	return &Definition{Kind: KindTable}
}

// Type returns a definition for a model stored as a composite SQL type.
func Type() *Definition {
	return &Definition{Kind: KindType}
}

// Named overrides the SQL name, which defaults to the snake-cased model name.
func (d *Definition) Named(name string) *Definition {
	d.Name = name
	return d
}

// FilePrefix sets the prefix of the generated script file name.
func (d *Definition) FilePrefix(prefix string) *Definition {
	d.Prefix = prefix
	return d
}

// Cached marks the table as a cache backing table. Its rows can be rebuilt
// and the table is created unlogged.
func (d *Definition) Cached() *Definition {
	d.Cache = true
	return d
}

// Alias adds alias names. The first alias is the discriminator value audit
// rows use to point at this table.
func (d *Definition) Alias(names ...string) *Definition {
	d.Aliases = append(d.Aliases, names...)
	return d
}

// AuditLog marks the table as an audit log.
func (d *Definition) AuditLog(discriminator, targetID string) *Definition {
	d.Audit = &Audit{Discriminator: discriminator, TargetID: targetID}
	return d
}

// Search adds a generated tsvector column built from fields.
func (d *Definition) Search(column, language string, fields ...string) *Definition {
	d.Searches = append(d.Searches, &Search{Column: column, Language: language, Fields: fields})
	return d
}

// Bridge marks the table as a bridge between the parent and child models.
// Both arguments are model values, e.g. Bridge(Manga{}, Tag{}).
func (d *Definition) Bridge(parent, child any) *Definition {
	d.Bridges = append(d.Bridges, &Bridge{Parent: TypeName(parent), Child: TypeName(child)})
	return d
}

// TypeName returns the name of the model type behind v, dereferencing
// pointers. Strings are returned as is.
func TypeName(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
