package gen

import (
	"fmt"

	"ariga.io/atlas/sql/postgres"

	"github.com/mangaloom/schemagen/compiler/load"
)

// ColumnKind is the semantic shape of a column.
type ColumnKind uint8

// Column kinds.
const (
	Scalar ColumnKind = iota
	NullableScalar
	ArrayScalar
	Composite
	ArrayComposite
)

// String implements fmt.Stringer.
func (k ColumnKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case NullableScalar:
		return "nullable-scalar"
	case ArrayScalar:
		return "array-scalar"
	case Composite:
		return "composite"
	case ArrayComposite:
		return "array-composite"
	default:
		return "invalid"
	}
}

type (
	// Column is an extracted column of a table or an attribute of a
	// composite type.
	Column struct {
		owner *Type
		// Name is the SQL column name.
		Name string
		// GoName is the struct field name on the model.
		GoName string
		// Kind is the semantic shape of the column.
		Kind ColumnKind
		// Base is the base type as loaded, e.g. "text" or "enum".
		// It is empty for composite references.
		Base string
		// Ref is the declared composite type reference, RefType its
		// resolution. RefType stays nil until the graph resolves it.
		Ref     string
		RefType *Type
		// Pointer is set when the model field is a pointer.
		Pointer     bool
		Required    bool
		PK          bool
		Unique      bool
		UniqueGroup string
		// FK is the foreign key declared on the column, if any.
		FK *ForeignKey
		// Default is a raw SQL default expression.
		Default string
		// Version is the schema version that introduced the column.
		// 0 is the baseline.
		Version int
		// Ignore excludes the column from generated writes.
		Ignore bool
		// Enum is the Go type of enum columns.
		Enum *load.GoType
		// Join is the array-join function name declared on a composite
		// attribute.
		Join string
	}

	// ForeignKey points a column at a column of another entity.
	ForeignKey struct {
		// Type is the target entity, by Go or SQL name.
		Type string
		// Column is the target column name.
		Column string
		// NoRelation keeps the key out of relationship inference.
		NoRelation bool
		// Target is the resolved entity, nil if unknown.
		Target *Type
	}
)

func newColumn(t *Type, f *load.Field) *Column {
	c := &Column{
		owner:       t,
		Name:        f.Name,
		GoName:      f.GoName,
		Pointer:     f.Nullable,
		Required:    f.Required,
		PK:          f.PK,
		Unique:      f.Unique,
		UniqueGroup: f.UniqueGroup,
		Default:     f.Default,
		Version:     f.Version,
		Ignore:      f.Ignore,
		Join:        f.Join,
	}
	if c.GoName == "" {
		c.GoName = Pascal(f.Name)
	}
	if f.IsBase() {
		c.Base = f.Type
	} else {
		c.Ref = f.Type
	}
	if f.Type == load.TypeEnum {
		c.Enum = f.GoType
	}
	if fk := f.ForeignKey; fk != nil {
		c.FK = &ForeignKey{Type: fk.Type, Column: fk.Column, NoRelation: fk.NoRelation}
		if c.FK.Column == "" {
			c.FK.Column = "id"
		}
	}
	switch {
	case f.Array && c.Ref != "":
		c.Kind = ArrayComposite
	case f.Array:
		c.Kind = ArrayScalar
	case c.Ref != "":
		c.Kind = Composite
	case c.Nullable():
		c.Kind = NullableScalar
	default:
		c.Kind = Scalar
	}
	return c
}

// =============================================================================
// Column methods
// =============================================================================

// Owner returns the entity declaring the column.
func (c *Column) Owner() *Type { return c.owner }

// IsArray reports if the column holds an array.
func (c *Column) IsArray() bool { return c.Kind == ArrayScalar || c.Kind == ArrayComposite }

// IsComposite reports if the column references a composite type.
func (c *Column) IsComposite() bool { return c.Ref != "" }

// IsText reports if the column is a text scalar.
func (c *Column) IsText() bool { return c.Base == load.TypeText }

// IsUUID reports if the column is a uuid scalar.
func (c *Column) IsUUID() bool { return c.Base == load.TypeUUID }

// Nullable reports if the column accepts NULL. Arrays, primary keys and
// required columns never do. Pointer fields, text and composite columns
// do unless required.
func (c *Column) Nullable() bool {
	switch {
	case c.Required, c.PK, c.IsArray():
		return false
	case c.Pointer, c.IsText(), c.IsComposite():
		return true
	default:
		return false
	}
}

// IncludedIn reports if the column exists at the given version cutoff.
func (c *Column) IncludedIn(version int) bool { return c.Version <= version }

// Baseline reports if the column is part of the initial table body.
// Columns with a positive version are migrated in with ALTER TABLE.
func (c *Column) Baseline() bool { return c.Version == 0 }

// BaseType returns the SQL element type of the column, without the array
// suffix. Unresolved composite references fail.
func (c *Column) BaseType() (string, error) {
	if c.IsComposite() {
		if c.RefType == nil {
			return "", fmt.Errorf("unknown composite type %q", c.Ref)
		}
		return c.RefType.SQLName, nil
	}
	switch c.Base {
	case load.TypeText:
		return postgres.TypeText, nil
	case load.TypeInteger, load.TypeEnum:
		return postgres.TypeInteger, nil
	case load.TypeBigInt:
		return postgres.TypeBigInt, nil
	case load.TypeSmallInt, load.TypeTinyInt:
		return postgres.TypeSmallInt, nil
	case load.TypeUUID:
		return postgres.TypeUUID, nil
	case load.TypeTimestamp:
		return postgres.TypeTimestamp, nil
	case load.TypeBoolean:
		return postgres.TypeBoolean, nil
	case load.TypeDecimal:
		return postgres.TypeDecimal, nil
	case load.TypeNumeric:
		return postgres.TypeNumeric, nil
	default:
		return "", fmt.Errorf("unknown base type %q", c.Base)
	}
}

// SQLType returns the SQL type of the column, e.g. "text[]".
func (c *Column) SQLType() (string, error) {
	base, err := c.BaseType()
	if err != nil {
		return "", err
	}
	if c.IsArray() {
		base += "[]"
	}
	return base, nil
}

// GoIdent returns the import path and name of the Go type used for
// primary-key arguments in generated code.
func (c *Column) GoIdent() (path, name string) {
	switch c.Base {
	case load.TypeUUID:
		return "github.com/google/uuid", "UUID"
	case load.TypeText:
		return "", "string"
	case load.TypeBigInt:
		return "", "int64"
	case load.TypeSmallInt:
		return "", "int16"
	case load.TypeTinyInt:
		return "", "int8"
	case load.TypeBoolean:
		return "", "bool"
	case load.TypeTimestamp:
		return "time", "Time"
	case load.TypeDecimal:
		return "github.com/shopspring/decimal", "Decimal"
	case load.TypeNumeric:
		return "", "float64"
	case load.TypeEnum:
		if c.Enum != nil && c.Enum.PkgPath != "" {
			return c.Enum.PkgPath, c.Enum.Ident
		}
		return "", "int"
	default:
		return "", "int"
	}
}

// String implements fmt.Stringer.
func (c *Column) String() string {
	if c.owner == nil {
		return c.Name
	}
	return c.owner.Name + "." + c.Name
}
