package sql

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelations(t *testing.T) {
	r := NewRelations()
	require.Zero(t, r.Len())
	assert.Nil(t, Related[tag](r))

	Attach(r, tag{ID: "t1"})
	Attach(r, source{ID: "s1"})
	Attach(r, tag{ID: "t2"}, tag{ID: "t3"})
	Attach[tag](r)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []tag{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}}, Related[tag](r))
	assert.Equal(t, []source{{ID: "s1"}}, Related[source](r))
	assert.Equal(t, []reflect.Type{reflect.TypeOf(tag{}), reflect.TypeOf(source{})}, r.Types())

	// Pointer rows are a distinct type.
	Attach(r, &manga{ID: "m1"})
	assert.Len(t, Related[*manga](r), 1)
	assert.Nil(t, Related[manga](r))
}

func TestRelations_Nil(t *testing.T) {
	var r *Relations
	assert.Nil(t, Related[tag](r))
	assert.Nil(t, r.Types())
	assert.Zero(t, r.Len())

	var zero Relations
	Attach(&zero, tag{ID: "t1"})
	assert.Equal(t, 1, zero.Len())
}

func TestLoaded(t *testing.T) {
	m := &manga{ID: "m1", Title: "Vagabond"}
	loaded := NewLoaded(m)
	require.NotNil(t, loaded.Relations)
	assert.Same(t, m, loaded.Row)
	Attach(loaded.Relations, source{ID: "s1"})
	assert.Len(t, Related[source](loaded.Relations), 1)
}
