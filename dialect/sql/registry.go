package sql

import (
	"fmt"
	"reflect"
	"sort"
)

// Registry records what a generated data-access package provides: the
// composite types it maps, its table services and the enum types backing
// integer columns. The generated register.go fills it.
type Registry struct {
	composites map[string]reflect.Type
	services   map[string]any
	enums      map[string]reflect.Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		composites: make(map[string]reflect.Type),
		services:   make(map[string]any),
		enums:      make(map[string]reflect.Type),
	}
}

// RegisterComposite maps the SQL composite type name to the Go type of v.
func (r *Registry) RegisterComposite(name string, v any) {
	r.composites[name] = indirect(reflect.TypeOf(v))
}

// RegisterService records the service of the given table.
func (r *Registry) RegisterService(table string, svc any) {
	r.services[table] = svc
}

// RegisterEnum maps table.column to the Go enum type of v.
func (r *Registry) RegisterEnum(table, column string, v any) {
	r.enums[table+"."+column] = indirect(reflect.TypeOf(v))
}

// Composite returns the Go type mapped to the composite type name.
func (r *Registry) Composite(name string) (reflect.Type, bool) {
	t, ok := r.composites[name]
	return t, ok
}

// Service returns the service of the given table.
func (r *Registry) Service(table string) (any, bool) {
	s, ok := r.services[table]
	return s, ok
}

// Enum returns the Go enum type of table.column.
func (r *Registry) Enum(table, column string) (reflect.Type, bool) {
	t, ok := r.enums[table+"."+column]
	return t, ok
}

// Tables returns the tables with a registered service, sorted.
func (r *Registry) Tables() []string {
	tables := make([]string, 0, len(r.services))
	for t := range r.services {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

// String implements fmt.Stringer.
func (r *Registry) String() string {
	return fmt.Sprintf("registry(composites=%d, services=%d, enums=%d)", len(r.composites), len(r.services), len(r.enums))
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
