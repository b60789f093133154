package sql

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangaloom/schemagen/compiler/gen"
	"github.com/mangaloom/schemagen/compiler/load"
)

func render(t *testing.T, files []*File, path string) string {
	t.Helper()
	for _, f := range files {
		if f.Path == path {
			return f.File.GoString()
		}
	}
	require.Failf(t, "missing file", "%s not generated", path)
	return ""
}

func TestBuild(t *testing.T) {
	files, err := Build(graph(t, catalog()...), Options{Package: storePkg})
	require.NoError(t, err)
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{
		"source_service.go",
		"manga_service.go",
		"tag_service.go",
		"manga_tag_service.go",
		ServicesFile,
		RegisterFile,
	}, paths)
	assert.Equal(t, ServicesFile, paths[len(paths)-2])
	assert.Equal(t, RegisterFile, paths[len(paths)-1])
}

func TestBuild_Service(t *testing.T) {
	files, err := Build(graph(t, catalog()...), Options{Package: storePkg})
	require.NoError(t, err)
	src := render(t, files, "manga_service.go")
	for _, want := range []string{
		"// " + gen.DefaultHeader,
		"package store",
		"// MangaService is the data-access contract of the manga table.",
		"type MangaService interface {",
		"Fetch(ctx context.Context, id uuid.UUID) (*Manga, error)",
		"Insert(ctx context.Context, row *Manga) (uuid.UUID, error)",
		"Update(ctx context.Context, row *Manga) error",
		"All(ctx context.Context) ([]*Manga, error)",
		"FetchWithRelationships(ctx context.Context, id uuid.UUID) (*sql.Loaded[Manga], error)",
		"type mangaService struct {",
		"func NewMangaService(ex sql.Executor) MangaService {",
		"func (s *mangaService) Fetch(ctx context.Context, id uuid.UUID) (*Manga, error) {",
		`return nil, schemagen.NewNotFoundErrorWithID("manga", id)`,
		`return nil, schemagen.NewQueryError("manga", "fetch", err)`,
		"row.ID = id",
		"res.RowsAffected()",
		`return schemagen.NewNotFoundErrorWithID("manga", row.ID)`,
		"sql.NewStatement(mangaFetchQuery, id)",
		"sql.NewStatement(mangaMangaTagBridgeQuery, id)",
		"sql.NewStatement(mangaSourceIDParentQuery, id)",
		"loaded = sql.NewLoaded(&row)",
		"sql.AttachMany[Tag](r, loaded.Relations)",
		"sql.AttachMany[Source](r, loaded.Relations)",
		`schemagen.NewQueryError("manga", "fetch with relationships", err)`,
		"var _ MangaService = (*mangaService)(nil)",
	} {
		assert.Contains(t, src, want)
	}
	assert.NotContains(t, src, "Upsert")
	// Bridge lookup precedes the parent lookup, both after the root.
	root := strings.Index(src, "sql.NewStatement(mangaFetchQuery")
	bridge := strings.Index(src, "sql.NewStatement(mangaMangaTagBridgeQuery")
	parent := strings.Index(src, "sql.NewStatement(mangaSourceIDParentQuery")
	assert.True(t, root < bridge && bridge < parent)

	src = render(t, files, "manga_tag_service.go")
	assert.Contains(t, src, "Insert(ctx context.Context, row *MangaTag) error")
	assert.Contains(t, src, `schemagen.NewMutationError("manga_tag", "insert", err)`)
	assert.NotContains(t, src, "Fetch(")
	assert.NotContains(t, src, "Update(")

	src = render(t, files, "source_service.go")
	assert.Contains(t, src, "Upsert(ctx context.Context, row *Source) (uuid.UUID, error)")
	assert.Contains(t, src, `schemagen.NewMutationError("source", "upsert", err)`)
}

func TestBuild_Models(t *testing.T) {
	schemas := catalog()
	schemas[1].PkgPath = "github.com/mangaloom/api/models"
	files, err := Build(graph(t, schemas...), Options{Package: storePkg, ModelPackage: "github.com/mangaloom/api/entity"})
	require.NoError(t, err)
	src := render(t, files, "manga_service.go")
	assert.Contains(t, src, `"github.com/mangaloom/api/models"`)
	assert.Contains(t, src, "(*models.Manga, error)")
	assert.Contains(t, src, "sql.AttachMany[entity.Tag](r, loaded.Relations)")
}

func TestBuild_ScalarArrays(t *testing.T) {
	g := graph(t, table("Manga", &load.Field{Name: "genres", Type: load.TypeText, Array: true}))
	files, err := Build(g, Options{Package: storePkg})
	require.NoError(t, err)
	src := render(t, files, "manga_service.go")
	assert.Contains(t, src, "pq.Array(row.Genres)")
}

func TestBuild_Aggregate(t *testing.T) {
	schemas := append(catalog(), &load.Schema{
		Name: "MangaTitle",
		Kind: load.KindType,
		Fields: []*load.Field{
			{Name: "title", Type: load.TypeText},
		},
	})
	schemas[1].Fields = append(schemas[1].Fields,
		&load.Field{Name: "status", Type: load.TypeEnum, GoType: &load.GoType{Ident: "MangaStatus"}},
		&load.Field{Name: "kind", Type: load.TypeEnum, Version: 2, GoType: &load.GoType{Ident: "Kind", PkgPath: "github.com/mangaloom/api/enum"}},
	)
	files, err := Build(graph(t, schemas...), Options{Package: storePkg})
	require.NoError(t, err)

	src := render(t, files, ServicesFile)
	for _, want := range []string{
		"type Services struct {",
		"Manga    MangaService",
		"MangaTag MangaTagService",
		"func NewServices(ex sql.Executor) *Services {",
		"Manga:    NewMangaService(ex),",
	} {
		assert.Contains(t, src, want)
	}

	src = render(t, files, RegisterFile)
	for _, want := range []string{
		"func Register(r *sql.Registry, s *Services) {",
		`r.RegisterComposite("manga_title", (*MangaTitle)(nil))`,
		`r.RegisterService("manga", s.Manga)`,
		`r.RegisterService("manga_tag", s.MangaTag)`,
		`r.RegisterEnum("manga", "status", (*MangaStatus)(nil))`,
	} {
		assert.Contains(t, src, want)
	}
	assert.NotContains(t, src, `"kind"`, "enum column beyond the cutoff")

	files, err = Build(graph(t, schemas...), Options{Package: storePkg, Version: 2})
	require.NoError(t, err)
	assert.Contains(t, render(t, files, RegisterFile), `r.RegisterEnum("manga", "kind", (*enum.Kind)(nil))`)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(graph(t, catalog()...), Options{})
	require.ErrorIs(t, err, gen.ErrMissingConfig, "no package name")

	late := &load.Schema{
		Name:   "Late",
		Kind:   load.KindTable,
		Fields: []*load.Field{{Name: "title", Type: load.TypeText, Version: 4}},
	}
	g := graph(t, append(catalog(), late)...)
	files, err := Build(g, Options{Package: storePkg})
	require.ErrorIs(t, err, gen.ErrGenerationFailed)
	assert.Len(t, files, 6, "other tables are still generated")
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	err := Generate(graph(t, catalog()...), Options{Target: dir})
	require.NoError(t, err)
	for _, name := range []string{"source_service.go", "manga_service.go", "tag_service.go", "manga_tag_service.go", ServicesFile, RegisterFile} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(string(b), "// "+gen.DefaultHeader+"\n"), name)
		assert.Contains(t, string(b), "package store", name)
	}

	err = Generate(graph(t, catalog()...), Options{})
	require.ErrorIs(t, err, gen.ErrMissingConfig)
}

func TestGenerator(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	require.NoError(t, graph(t, catalog()...).Gen(Generator(Options{Target: dir})))
	require.FileExists(t, filepath.Join(dir, ServicesFile))
}
