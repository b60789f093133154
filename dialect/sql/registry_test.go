package sql

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status int

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.RegisterComposite("manga_title", (*manga)(nil))
	r.RegisterService("tag", "tag service")
	r.RegisterService("manga", "manga service")
	r.RegisterEnum("manga", "status", status(0))

	typ, ok := r.Composite("manga_title")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(manga{}), typ)
	_, ok = r.Composite("chapter_title")
	assert.False(t, ok)

	svc, ok := r.Service("manga")
	require.True(t, ok)
	assert.Equal(t, "manga service", svc)
	assert.Equal(t, []string{"manga", "tag"}, r.Tables())

	typ, ok = r.Enum("manga", "status")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(status(0)), typ)
	_, ok = r.Enum("tag", "status")
	assert.False(t, ok)

	assert.Equal(t, "registry(composites=1, services=2, enums=1)", r.String())
}
