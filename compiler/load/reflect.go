package load

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mangaloom/schemagen/schema"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// Load builds the descriptors of the given models, preserving their order.
func Load(models ...schema.Definer) ([]*Schema, error) {
	schemas := make([]*Schema, 0, len(models))
	for _, m := range models {
		s, err := NewSchema(m)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

// NewSchema builds the descriptor of a single model by reading its
// definition and struct tags.
func NewSchema(model schema.Definer) (*Schema, error) {
	if model == nil {
		return nil, fmt.Errorf("load: nil model")
	}
	typ := indirect(reflect.TypeOf(model))
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("load: model %s is not a struct", typ)
	}
	d, err := safeDefinition(model)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("schema %q: nil definition", typ.Name())
	}
	s := &Schema{
		Name:    typ.Name(),
		Kind:    d.Kind.String(),
		Table:   d.Name,
		PkgPath: typ.PkgPath(),
		Prefix:  d.Prefix,
		Cache:   d.Cache,
		Aliases: d.Aliases,
	}
	if d.Kind != schema.KindTable && d.Kind != schema.KindType {
		return nil, fmt.Errorf("schema %q: definition is neither schema.Table() nor schema.Type()", s.Name)
	}
	if a := d.Audit; a != nil {
		s.Audit = &Audit{Discriminator: a.Discriminator, TargetID: a.TargetID}
	}
	for _, sr := range d.Searches {
		s.Search = append(s.Search, &Search{Column: sr.Column, Language: sr.Language, Fields: sr.Fields})
	}
	for _, b := range d.Bridges {
		s.Bridges = append(s.Bridges, &Bridge{Parent: b.Parent, Child: b.Child})
	}
	if err := s.loadFields(typ); err != nil {
		return nil, fmt.Errorf("schema %q: %w", s.Name, err)
	}
	if err := s.defaults(); err != nil {
		return nil, err
	}
	return s, nil
}

// loadFields walks the exported struct fields, flattening untagged
// embedded structs.
func (s *Schema) loadFields(typ reflect.Type) error {
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		tag, tagged := sf.Tag.Lookup("db")
		if sf.Anonymous && !tagged {
			if et := indirect(sf.Type); et.Kind() == reflect.Struct {
				if err := s.loadFields(et); err != nil {
					return err
				}
			}
			continue
		}
		if !sf.IsExported() || !tagged || tag == "-" {
			continue
		}
		f, err := newField(sf, tag)
		if err != nil {
			return fmt.Errorf("field %q: %w", sf.Name, err)
		}
		s.Fields = append(s.Fields, f)
	}
	return nil
}

func newField(sf reflect.StructField, tag string) (*Field, error) {
	parts := strings.Split(tag, ",")
	f := &Field{Name: strings.TrimSpace(parts[0]), GoName: sf.Name}
	if f.Name == "" {
		return nil, fmt.Errorf("empty column name in db tag")
	}
	for _, opt := range parts[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "pk":
			f.PK = true
		case "required":
			f.Required = true
		case "unique":
			if value == "" {
				f.Unique = true
			} else {
				f.UniqueGroup = value
			}
		case "version":
			v, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid version %q: %w", value, err)
			}
			f.Version = v
		case "ignore":
			f.Ignore = true
		case "join":
			if value == "" {
				return nil, fmt.Errorf("join option requires a function name")
			}
			f.Join = value
		case "":
		default:
			return nil, fmt.Errorf("unknown db tag option %q", key)
		}
	}
	if fk, ok := sf.Tag.Lookup("fk"); ok {
		f.ForeignKey = parseForeignKey(fk)
	}
	f.Default = sf.Tag.Get("default")
	if err := f.setType(sf.Type); err != nil {
		return nil, err
	}
	return f, nil
}

// parseForeignKey parses the "Target[.column][,norel]" grammar.
func parseForeignKey(tag string) *ForeignKey {
	ref, opts, _ := strings.Cut(tag, ",")
	target, column, _ := strings.Cut(strings.TrimSpace(ref), ".")
	fk := &ForeignKey{Type: target, Column: column}
	for _, o := range strings.Split(opts, ",") {
		if strings.TrimSpace(o) == "norel" {
			fk.NoRelation = true
		}
	}
	if fk.Column == "" {
		fk.Column = "id"
	}
	return fk
}

// setType resolves the column type of t. Pointers mark the field nullable,
// slices mark it as an array.
func (f *Field) setType(t reflect.Type) error {
	if t.Kind() == reflect.Pointer {
		f.Nullable = true
		t = t.Elem()
	}
	if t.Kind() == reflect.Slice {
		if t.Elem().Kind() == reflect.Uint8 {
			return fmt.Errorf("unsupported type %s", t)
		}
		f.Array = true
		t = t.Elem()
	}
	switch t {
	case timeType:
		f.Type = TypeTimestamp
		return nil
	case uuidType:
		f.Type = TypeUUID
		return nil
	case decimalType:
		f.Type = TypeDecimal
		return nil
	}
	switch t.Kind() {
	case reflect.String:
		f.Type = TypeText
	case reflect.Bool:
		f.Type = TypeBoolean
	case reflect.Int, reflect.Int32, reflect.Uint16:
		f.Type = TypeInteger
	case reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		f.Type = TypeBigInt
	case reflect.Int16:
		f.Type = TypeSmallInt
	case reflect.Int8, reflect.Uint8:
		f.Type = TypeTinyInt
	case reflect.Float32, reflect.Float64:
		f.Type = TypeNumeric
	case reflect.Struct:
		if t.Name() == "" {
			return fmt.Errorf("unsupported anonymous struct type")
		}
		f.Type = t.Name()
		return nil
	default:
		return fmt.Errorf("unsupported type %s", t)
	}
	// Named integer types declared outside the standard library are enums.
	if isInteger(t.Kind()) && t.PkgPath() != "" {
		f.Type = TypeEnum
		f.GoType = &GoType{Ident: t.Name(), PkgPath: t.PkgPath()}
	}
	return nil
}

func isInteger(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Uint64
}
