package sql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mangaloom/schemagen/compiler/gen"
	"github.com/mangaloom/schemagen/compiler/load"
)

const storePkg = "github.com/mangaloom/api/store"

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

func deletedAt() *load.Field {
	return &load.Field{Name: "deleted_at", Type: load.TypeTimestamp, Nullable: true}
}

// catalog is a manga with a parent source and a bridge toward tags.
func catalog() []*load.Schema {
	mangaTag := &load.Schema{
		Name:    "MangaTag",
		Kind:    load.KindTable,
		Bridges: []*load.Bridge{{Parent: "Manga", Child: "Tag"}},
		Fields:  []*load.Field{fk("manga_id", "Manga"), fk("tag_id", "Tag")},
	}
	return []*load.Schema{
		table("Source", &load.Field{Name: "name", Type: load.TypeText, Required: true, Unique: true}),
		table("Manga",
			fk("source_id", "Source"),
			&load.Field{Name: "title", Type: load.TypeText, Required: true},
			deletedAt(),
		),
		table("Tag", &load.Field{Name: "name", Type: load.TypeText, Required: true, Unique: true}),
		mangaTag,
	}
}

func history() *load.Schema {
	h := table("MangaHistory",
		&load.Field{Name: "entity", Type: load.TypeText, Required: true},
		&load.Field{Name: "entity_id", Type: load.TypeUUID, Required: true},
		&load.Field{Name: "note", Type: load.TypeText},
	)
	h.Audit = &load.Audit{Discriminator: "entity", TargetID: "entity_id"}
	return h
}

func graph(t *testing.T, schemas ...*load.Schema) *gen.Graph {
	t.Helper()
	g, err := gen.NewGraph(gen.MustNewConfig(), schemas...)
	require.NoError(t, err)
	return g
}

func service(t *testing.T, g *gen.Graph, name string, opts Options) *Service {
	t.Helper()
	typ, ok := g.Lookup(name)
	require.True(t, ok, "type %s", name)
	s, err := NewService(g, typ, opts)
	require.NoError(t, err)
	return s
}

func methodNames(s *Service) []string {
	out := make([]string, len(s.Contract.Methods))
	for i, m := range s.Contract.Methods {
		out[i] = m.Name
	}
	return out
}
