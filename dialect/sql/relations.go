package sql

import (
	"reflect"
)

// Relations is a heterogeneous collection of rows related to one root
// row, keyed by row type. Rows of the same type accumulate in the order
// they were attached.
type Relations struct {
	rows  map[reflect.Type]any
	order []reflect.Type
}

// NewRelations returns an empty collection.
func NewRelations() *Relations {
	return &Relations{rows: make(map[reflect.Type]any)}
}

// Attach appends rows to the collection under their type.
func Attach[T any](r *Relations, rows ...T) {
	if r.rows == nil {
		r.rows = make(map[reflect.Type]any)
	}
	key := reflect.TypeOf((*T)(nil)).Elem()
	prev, ok := r.rows[key].([]T)
	if !ok {
		r.order = append(r.order, key)
	}
	r.rows[key] = append(prev, rows...)
}

// AttachMany reads the next result set of r as rows of T and attaches
// them to rel.
func AttachMany[T any](r BatchReader, rel *Relations) error {
	var rows []T
	if err := r.Many(&rows); err != nil {
		return err
	}
	Attach(rel, rows...)
	return nil
}

// Related returns the rows of type T attached to the collection.
func Related[T any](r *Relations) []T {
	if r == nil {
		return nil
	}
	rows, _ := r.rows[reflect.TypeOf((*T)(nil)).Elem()].([]T)
	return rows
}

// Types returns the attached row types in first-attach order.
func (r *Relations) Types() []reflect.Type {
	if r == nil {
		return nil
	}
	return append([]reflect.Type(nil), r.order...)
}

// Len returns the number of distinct row types attached.
func (r *Relations) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Loaded is a root row with the rows related to it.
type Loaded[T any] struct {
	Row       *T
	Relations *Relations
}

// NewLoaded returns row with an empty relation collection.
func NewLoaded[T any](row *T) *Loaded[T] {
	return &Loaded[T]{Row: row, Relations: NewRelations()}
}
