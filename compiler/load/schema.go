package load

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mangaloom/schemagen/schema"
)

// Schema kinds as they appear in serialized descriptors.
const (
	KindTable = "table"
	KindType  = "type"
)

// Base column types understood by the generator. Any other Field.Type value
// names a composite type.
const (
	TypeText      = "text"
	TypeInteger   = "integer"
	TypeBigInt    = "bigint"
	TypeUUID      = "uuid"
	TypeTimestamp = "timestamp"
	TypeBoolean   = "boolean"
	TypeDecimal   = "decimal"
	TypeNumeric   = "numeric"
	TypeSmallInt  = "smallint"
	TypeTinyInt   = "tinyint"
	TypeEnum      = "enum"
)

// Schema represents a model definition that was loaded from Go values or a
// YAML document.
type Schema struct {
	Name    string    `json:"name" yaml:"name"`
	Kind    string    `json:"kind" yaml:"kind"`
	Table   string    `json:"table,omitempty" yaml:"table,omitempty"`
	PkgPath string    `json:"pkg_path,omitempty" yaml:"pkg_path,omitempty"`
	Prefix  string    `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Cache   bool      `json:"cache,omitempty" yaml:"cache,omitempty"`
	Aliases []string  `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Audit   *Audit    `json:"audit,omitempty" yaml:"audit,omitempty"`
	Search  []*Search `json:"search,omitempty" yaml:"search,omitempty"`
	Bridges []*Bridge `json:"bridges,omitempty" yaml:"bridges,omitempty"`
	Fields  []*Field  `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Audit holds the columns of a polymorphic audit log.
type Audit struct {
	Discriminator string `json:"discriminator" yaml:"discriminator"`
	TargetID      string `json:"target_id" yaml:"target_id"`
}

// Search describes one generated full-text search column.
type Search struct {
	Column   string   `json:"column" yaml:"column"`
	Language string   `json:"language,omitempty" yaml:"language,omitempty"`
	Fields   []string `json:"fields" yaml:"fields"`
}

// Bridge names the two sides of a many-to-many association table.
type Bridge struct {
	Parent string `json:"parent" yaml:"parent"`
	Child  string `json:"child" yaml:"child"`
}

// Field represents a column (or composite attribute) of a loaded schema.
type Field struct {
	Name        string      `json:"name" yaml:"name"`
	GoName      string      `json:"go_name,omitempty" yaml:"go_name,omitempty"`
	Type        string      `json:"type" yaml:"type"`
	Array       bool        `json:"array,omitempty" yaml:"array,omitempty"`
	Nullable    bool        `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Required    bool        `json:"required,omitempty" yaml:"required,omitempty"`
	PK          bool        `json:"pk,omitempty" yaml:"pk,omitempty"`
	Unique      bool        `json:"unique,omitempty" yaml:"unique,omitempty"`
	UniqueGroup string      `json:"unique_group,omitempty" yaml:"unique_group,omitempty"`
	Default     string      `json:"default,omitempty" yaml:"default,omitempty"`
	Version     int         `json:"version,omitempty" yaml:"version,omitempty"`
	Ignore      bool        `json:"ignore,omitempty" yaml:"ignore,omitempty"`
	Join        string      `json:"join,omitempty" yaml:"join,omitempty"`
	ForeignKey  *ForeignKey `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
	GoType      *GoType     `json:"go_type,omitempty" yaml:"go_type,omitempty"`
}

// ForeignKey points a field at a column of another schema.
type ForeignKey struct {
	Type       string `json:"type" yaml:"type"`
	Column     string `json:"column,omitempty" yaml:"column,omitempty"`
	NoRelation bool   `json:"no_relation,omitempty" yaml:"no_relation,omitempty"`
}

// GoType records the Go type behind enum fields, used when registering
// enum column mappings.
type GoType struct {
	Ident   string `json:"ident" yaml:"ident"`
	PkgPath string `json:"pkg_path,omitempty" yaml:"pkg_path,omitempty"`
}

// IsBase reports if the field type is a base SQL type, as opposed to a
// composite type reference.
func (f *Field) IsBase() bool {
	switch f.Type {
	case TypeText, TypeInteger, TypeBigInt, TypeUUID, TypeTimestamp, TypeBoolean,
		TypeDecimal, TypeNumeric, TypeSmallInt, TypeTinyInt, TypeEnum:
		return true
	default:
		return false
	}
}

// MarshalSchema encodes the schema.Definer into a JSON that can be decoded
// into the Schema objects declared above.
func MarshalSchema(model schema.Definer) ([]byte, error) {
	s, err := NewSchema(model)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// UnmarshalSchema decodes the given buffer to a loaded schema.
func UnmarshalSchema(buf []byte) (*Schema, error) {
	s := &Schema{}
	if err := json.Unmarshal(buf, s); err != nil {
		return nil, err
	}
	if err := s.defaults(); err != nil {
		return nil, err
	}
	return s, nil
}

// defaults fills omitted values and validates the decoded descriptor.
func (s *Schema) defaults() error {
	if s.Name == "" {
		return fmt.Errorf("schema: missing name")
	}
	switch s.Kind {
	case KindTable, KindType:
	case "":
		s.Kind = KindTable
	default:
		return fmt.Errorf("schema %q: unknown kind %q", s.Name, s.Kind)
	}
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %q: field without a name", s.Name)
		}
		if f.Type == "" {
			return fmt.Errorf("schema %q: field %q: missing type", s.Name, f.Name)
		}
		if f.Version < 0 {
			return fmt.Errorf("schema %q: field %q: negative version %d", s.Name, f.Name, f.Version)
		}
		if fk := f.ForeignKey; fk != nil && fk.Column == "" {
			fk.Column = "id"
		}
	}
	return nil
}

// safeDefinition wraps the Schema method with recover to ensure no panics in marshaling.
func safeDefinition(model schema.Definer) (d *schema.Definition, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Schema panics: %v", model, v)
			d = nil
		}
	}()
	return model.Schema(), nil
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
