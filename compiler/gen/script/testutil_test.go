package script

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mangaloom/schemagen/compiler/gen"
	"github.com/mangaloom/schemagen/compiler/load"
)

func table(name string, fields ...*load.Field) *load.Schema {
	return &load.Schema{
		Name:   name,
		Kind:   load.KindTable,
		Fields: append([]*load.Field{{Name: "id", Type: load.TypeUUID, PK: true}}, fields...),
	}
}

func fk(name, target string) *load.Field {
	return &load.Field{Name: name, Type: load.TypeUUID, Required: true, ForeignKey: &load.ForeignKey{Type: target, Column: "id"}}
}

// mangaTitle is a composite type with an array-join function over title.
func mangaTitle() *load.Schema {
	return &load.Schema{
		Name: "MangaTitle",
		Kind: load.KindType,
		Fields: []*load.Field{
			{Name: "title", Type: load.TypeText, Join: "manga_titles_text"},
			{Name: "language", Type: load.TypeText},
		},
	}
}

func graph(t *testing.T, schemas ...*load.Schema) *gen.Graph {
	t.Helper()
	g, err := gen.NewGraph(gen.MustNewConfig(), schemas...)
	require.NoError(t, err)
	return g
}

func lookup(t *testing.T, g *gen.Graph, name string) *gen.Type {
	t.Helper()
	typ, ok := g.Lookup(name)
	require.True(t, ok, "type %s", name)
	return typ
}
