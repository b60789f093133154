package gen

import (
	"errors"
	"fmt"
	"go/token"
	"strings"

	"github.com/mangaloom/schemagen/compiler/load"
)

// Kind tells tables apart from composite types.
type Kind uint8

// Entity kinds.
const (
	KindTable Kind = iota + 1
	KindComposite
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindComposite:
		return "composite"
	default:
		return "invalid"
	}
}

type (
	// Type represents one entity of the graph: a table or a composite type.
	Type struct {
		*Config
		schema *load.Schema
		// Kind of the entity.
		Kind Kind
		// Name is the Go name of the model.
		Name string
		// SQLName is the table or composite type name in the database.
		SQLName string
		// PkgPath is the import path of the package declaring the model.
		PkgPath string
		// Prefix of the generated script file name.
		Prefix string
		// Cache marks tables backing a cache.
		Cache bool
		// Aliases of the table. The first one is its audit discriminator value.
		Aliases []string
		// Audit is set on audit-log tables.
		Audit *Audit
		// Search lists the generated full-text search columns.
		Search []*Search
		// Bridges lists the bridge markers of the table.
		Bridges []*BridgeDecl
		// Join is the array-join directive of a composite type.
		Join *Join
		// Columns in declaration order.
		Columns []*Column
		columns map[string]*Column
		// Requires holds the Go names of the entities that must exist
		// before this one, in first-reference order: foreign-key targets
		// and referenced composite types. Self references are excluded and
		// unknown foreign-key targets are kept as declared.
		Requires []string
		requires orderedSet
	}

	// Audit holds the columns of an audit-log table.
	Audit struct {
		Discriminator string
		TargetID      string
	}

	// Search is a generated tsvector column built from Fields.
	Search struct {
		Column   string
		Language string
		Fields   []string
	}

	// BridgeDecl is the (parent, child) marker of a bridge table.
	BridgeDecl struct {
		Parent string
		Child  string
	}

	// Join is the array-join directive of a composite type: Function
	// projects Column out of an array of the type.
	Join struct {
		Column   *Column
		Function string
	}
)

// NewType creates a type from the loaded schema.
func NewType(c *Config, schema *load.Schema) (*Type, error) {
	if err := ValidSchemaName(schema.Name); err != nil {
		return nil, NewSchemaError(schema.Name, "", "invalid name", err)
	}
	typ := &Type{
		Config:  c,
		schema:  schema,
		Kind:    KindTable,
		Name:    schema.Name,
		SQLName: schema.Table,
		PkgPath: schema.PkgPath,
		Prefix:  schema.Prefix,
		Cache:   schema.Cache,
		Aliases: schema.Aliases,
		Columns: make([]*Column, 0, len(schema.Fields)),
		columns: make(map[string]*Column, len(schema.Fields)),
	}
	if schema.Kind == load.KindType {
		typ.Kind = KindComposite
	}
	if typ.SQLName == "" {
		typ.SQLName = Snake(typ.Name)
	}
	for _, f := range schema.Fields {
		if typ.columns[f.Name] != nil {
			return nil, NewSchemaError(typ.Name, f.Name, fmt.Sprintf("column redeclared for type %q", typ.Name), nil)
		}
		col := newColumn(typ, f)
		if err := typ.checkColumn(col); err != nil {
			return nil, NewSchemaError(typ.Name, f.Name, "", err)
		}
		typ.Columns = append(typ.Columns, col)
		typ.columns[col.Name] = col
	}
	if err := typ.setupMarkers(schema); err != nil {
		return nil, err
	}
	return typ, nil
}

// setupMarkers reads the table-level markers and validates them against
// the kind and the declared columns.
func (t *Type) setupMarkers(schema *load.Schema) error {
	if t.IsComposite() && (schema.Audit != nil || len(schema.Bridges) > 0 || len(schema.Search) > 0 || schema.Cache) {
		return NewSchemaError(t.Name, "", "composite types cannot declare audit, bridge, search or cache markers", nil)
	}
	if a := schema.Audit; a != nil {
		t.Audit = &Audit{Discriminator: a.Discriminator, TargetID: a.TargetID}
		for _, name := range []string{a.Discriminator, a.TargetID} {
			if _, ok := t.Column(name); !ok {
				return NewSchemaError(t.Name, name, "audit column is not declared", nil)
			}
		}
	}
	for _, s := range schema.Search {
		if s.Column == "" || len(s.Fields) == 0 {
			return NewSchemaError(t.Name, s.Column, "search group requires an output column and at least one field", nil)
		}
		lang := s.Language
		if lang == "" {
			lang = "simple"
		}
		t.Search = append(t.Search, &Search{Column: s.Column, Language: lang, Fields: s.Fields})
	}
	for _, b := range schema.Bridges {
		t.Bridges = append(t.Bridges, &BridgeDecl{Parent: b.Parent, Child: b.Child})
	}
	for _, c := range t.Columns {
		if c.Join == "" {
			continue
		}
		if !t.IsComposite() {
			return NewSchemaError(t.Name, c.Name, "join directives are allowed on composite types only", nil)
		}
		if t.Join != nil {
			return NewSchemaError(t.Name, c.Name, fmt.Sprintf("join directive already declared on %q", t.Join.Column.Name), nil)
		}
		t.Join = &Join{Column: c, Function: c.Join}
	}
	return nil
}

func (t *Type) addRequire(name string) {
	if t.requires.add(name) {
		t.Requires = t.requires.list
	}
}

// DependsOn reports if name is in the requires set.
func (t *Type) DependsOn(name string) bool { return t.requires.has(name) }

// =============================================================================
// Type methods
// =============================================================================

// IsTable reports if the type is a table.
func (t Type) IsTable() bool { return t.Kind == KindTable }

// IsComposite reports if the type is a composite SQL type.
func (t Type) IsComposite() bool { return t.Kind == KindComposite }

// IsAudit reports if the table is an audit log.
func (t Type) IsAudit() bool { return t.Audit != nil }

// IsBridge reports if the table carries bridge markers.
func (t Type) IsBridge() bool { return len(t.Bridges) > 0 }

// Is reports if name refers to this type, by Go or SQL name.
func (t Type) Is(name string) bool { return name == t.Name || name == t.SQLName }

// Label returns the snake-cased Go name.
func (t Type) Label() string { return Snake(t.Name) }

// Table returns the SQL name of the entity.
func (t Type) Table() string { return t.SQLName }

// Receiver returns the receiver name of this type.
func (t Type) Receiver() string { return Receiver(t.Name) }

// File returns the script file name of the entity.
func (t Type) File() string { return t.Prefix + t.SQLName + ".sql" }

// FunctionFile returns the script file name of the array-join function,
// or an empty string if the type declares none.
func (t Type) FunctionFile() string {
	if t.Join == nil {
		return ""
	}
	return t.Prefix + t.Join.Function + ".sql"
}

// Column returns the column with the given SQL name.
func (t Type) Column(name string) (*Column, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// ColumnBy returns the first column matching fn.
func (t Type) ColumnBy(fn func(*Column) bool) (*Column, bool) {
	for _, c := range t.Columns {
		if fn(c) {
			return c, true
		}
	}
	return nil, false
}

// PrimaryKey returns the primary-key columns in declaration order.
func (t Type) PrimaryKey() []*Column {
	var pk []*Column
	for _, c := range t.Columns {
		if c.PK {
			pk = append(pk, c)
		}
	}
	return pk
}

// ID returns the single-column primary key, or nil if the table has none
// or a composite one.
func (t Type) ID() *Column {
	if pk := t.PrimaryKey(); len(pk) == 1 {
		return pk[0]
	}
	return nil
}

// HasCompositeID reports if the primary key spans several columns.
func (t Type) HasCompositeID() bool { return len(t.PrimaryKey()) > 1 }

// Ordered returns the columns with primary-key columns first, keeping the
// declaration order otherwise.
func (t Type) Ordered() []*Column {
	cols := make([]*Column, 0, len(t.Columns))
	cols = append(cols, t.PrimaryKey()...)
	for _, c := range t.Columns {
		if !c.PK {
			cols = append(cols, c)
		}
	}
	return cols
}

// Included returns the ordered columns introduced at or before version.
func (t Type) Included(version int) []*Column {
	var cols []*Column
	for _, c := range t.Ordered() {
		if c.IncludedIn(version) {
			cols = append(cols, c)
		}
	}
	return cols
}

// UniqueGroup is a named set of columns sharing one unique constraint.
type UniqueGroup struct {
	Name    string
	Columns []*Column
}

// UniqueGroups returns the declared unique groups in first-seen order.
func (t Type) UniqueGroups() []*UniqueGroup {
	var (
		groups []*UniqueGroup
		byName = make(map[string]*UniqueGroup)
	)
	for _, c := range t.Ordered() {
		if c.UniqueGroup == "" {
			continue
		}
		g, ok := byName[c.UniqueGroup]
		if !ok {
			g = &UniqueGroup{Name: c.UniqueGroup}
			byName[g.Name] = g
			groups = append(groups, g)
		}
		g.Columns = append(g.Columns, c)
	}
	return groups
}

// HasUnique reports if the type has at least one single unique column or
// a unique group.
func (t Type) HasUnique() bool {
	_, ok := t.ColumnBy(func(c *Column) bool { return c.Unique || c.UniqueGroup != "" })
	return ok
}

// EnumColumns returns the columns backed by a Go enum type.
func (t Type) EnumColumns() []*Column {
	var cols []*Column
	for _, c := range t.Columns {
		if c.Enum != nil {
			cols = append(cols, c)
		}
	}
	return cols
}

// DiscriminatorValue is the value audit rows use to point at this table:
// the first alias, or the table name.
func (t Type) DiscriminatorValue() string {
	if len(t.Aliases) > 0 {
		return t.Aliases[0]
	}
	return t.SQLName
}

// ValidSchemaName will determine if a name is going to conflict with any
// pre-defined names or contains unsafe characters.
func ValidSchemaName(name string) error {
	if name == "" {
		return errors.New("schema name cannot be empty")
	}
	// Names end up in file paths.
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("schema name %q contains path separator characters", name)
	}
	if !token.IsIdentifier(name) {
		return fmt.Errorf("schema name %q is not a valid Go identifier", name)
	}
	if token.Lookup(strings.ToLower(name)).IsKeyword() {
		return fmt.Errorf("schema lowercase name conflicts with Go keyword %q", strings.ToLower(name))
	}
	return nil
}

// checkColumn checks the extracted column.
func (t *Type) checkColumn(c *Column) (err error) {
	switch {
	case c.Name == "":
		err = errors.New("column name cannot be empty")
	case c.Version < 0:
		err = fmt.Errorf("negative version %d", c.Version)
	case c.PK && c.Version > 0:
		err = errors.New("primary key columns must be part of the baseline")
	case c.PK && t.IsComposite():
		err = errors.New("composite types cannot declare a primary key")
	case c.IsArray() && c.PK:
		err = errors.New("array columns cannot be part of the primary key")
	case c.IsComposite() && c.PK:
		err = errors.New("composite columns cannot be part of the primary key")
	case c.Unique && c.UniqueGroup != "":
		err = errors.New("column cannot be both unique and a unique group member")
	case c.FK != nil && c.FK.Type == "":
		err = errors.New("foreign key without a target type")
	case c.Join != "" && !token.IsIdentifier(c.Join):
		err = fmt.Errorf("invalid join function name %q", c.Join)
	}
	return err
}
