package load

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangaloom/schemagen/schema"
)

type status int

type title struct {
	Title string `db:"title,join=titles_text"`
	Lang  string `db:"lang"`
}

func (title) Schema() *schema.Definition { return schema.Type() }

type timestamps struct {
	CreatedAt time.Time  `db:"created_at,ignore" default:"now()"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type book struct {
	timestamps
	ID       uuid.UUID       `db:"id,pk"`
	Name     string          `db:"name,required,unique"`
	Titles   []title         `db:"titles"`
	Status   status          `db:"status"`
	Price    decimal.Decimal `db:"price,version=3"`
	Rating   *float64        `db:"rating"`
	Pages    int16           `db:"pages"`
	Flags    uint8           `db:"flags"`
	Tags     []string        `db:"tags"`
	AuthorID uuid.UUID       `db:"author_id,unique=author_slot" fk:"Author.uid,norel"`
	Slot     int             `db:"slot,unique=author_slot"`
	Skipped  string          `db:"-"`
	Untagged string
	internal string
}

func (book) Schema() *schema.Definition {
	return schema.Table().
		Named("books").
		Alias("book").
		Search("search_vector", "english", "name", "titles").
		FilePrefix("01_")
}

type badVersion struct {
	ID int `db:"id,pk,version=x"`
}

func (badVersion) Schema() *schema.Definition { return schema.Table() }

type panicky struct{}

func (panicky) Schema() *schema.Definition { panic("boom") }

func TestNewSchema(t *testing.T) {
	require := require.New(t)
	s, err := NewSchema(book{})
	require.NoError(err)
	require.Equal("book", s.Name)
	require.Equal(KindTable, s.Kind)
	require.Equal("books", s.Table)
	require.Equal("01_", s.Prefix)
	require.Equal([]string{"book"}, s.Aliases)
	require.Len(s.Search, 1)
	require.Equal([]string{"name", "titles"}, s.Search[0].Fields)

	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	require.Equal([]string{
		"created_at", "deleted_at", "id", "name", "titles", "status",
		"price", "rating", "pages", "flags", "tags", "author_id", "slot",
	}, names)

	byName := make(map[string]*Field)
	for _, f := range s.Fields {
		byName[f.Name] = f
	}
	tests := []struct {
		column   string
		typ      string
		array    bool
		nullable bool
	}{
		{"created_at", TypeTimestamp, false, false},
		{"deleted_at", TypeTimestamp, false, true},
		{"id", TypeUUID, false, false},
		{"name", TypeText, false, false},
		{"titles", "title", true, false},
		{"status", TypeEnum, false, false},
		{"price", TypeDecimal, false, false},
		{"rating", TypeNumeric, false, true},
		{"pages", TypeSmallInt, false, false},
		{"flags", TypeTinyInt, false, false},
		{"tags", TypeText, true, false},
		{"slot", TypeInteger, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			f := byName[tt.column]
			require.NotNil(f)
			assert.Equal(t, tt.typ, f.Type)
			assert.Equal(t, tt.array, f.Array)
			assert.Equal(t, tt.nullable, f.Nullable)
		})
	}

	require.True(byName["id"].PK)
	require.True(byName["name"].Required)
	require.True(byName["name"].Unique)
	require.True(byName["created_at"].Ignore)
	require.Equal("now()", byName["created_at"].Default)
	require.Equal(3, byName["price"].Version)
	require.Equal(&GoType{Ident: "status", PkgPath: "github.com/mangaloom/schemagen/compiler/load"}, byName["status"].GoType)
	require.Equal(&ForeignKey{Type: "Author", Column: "uid", NoRelation: true}, byName["author_id"].ForeignKey)
	require.Equal("author_slot", byName["author_id"].UniqueGroup)
	require.Equal("author_slot", byName["slot"].UniqueGroup)
}

func TestNewSchema_Composite(t *testing.T) {
	s, err := NewSchema(&title{})
	require.NoError(t, err)
	require.Equal(t, KindType, s.Kind)
	require.Equal(t, "titles_text", s.Fields[0].Join)
}

func TestNewSchema_Errors(t *testing.T) {
	_, err := NewSchema(badVersion{})
	require.Error(t, err)
	require.Contains(t, err.Error(), `field "ID"`)

	_, err = NewSchema(panicky{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "panics: boom")

	_, err = NewSchema(nil)
	require.Error(t, err)
}

func TestParseForeignKey(t *testing.T) {
	tests := []struct {
		tag  string
		want *ForeignKey
	}{
		{"Source", &ForeignKey{Type: "Source", Column: "id"}},
		{"Source.uid", &ForeignKey{Type: "Source", Column: "uid"}},
		{"Source,norel", &ForeignKey{Type: "Source", Column: "id", NoRelation: true}},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, parseForeignKey(tt.tag))
		})
	}
}

func TestMarshalSchema(t *testing.T) {
	require := require.New(t)
	buf, err := MarshalSchema(book{})
	require.NoError(err)
	s, err := UnmarshalSchema(buf)
	require.NoError(err)
	require.Equal("book", s.Name)
	require.Len(s.Fields, 13)

	_, err = UnmarshalSchema([]byte(`{"name":"x","kind":"view"}`))
	require.Error(err)
}

func TestLoad(t *testing.T) {
	schemas, err := Load(title{}, book{})
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	require.Equal(t, "title", schemas[0].Name)
	require.Equal(t, "book", schemas[1].Name)
}

func TestReadFile(t *testing.T) {
	require := require.New(t)
	doc, err := ReadFile("testdata/schema.yaml")
	require.NoError(err)
	require.Len(doc.Schemas, 3)

	manga := doc.Schemas[2]
	require.Equal("Manga", manga.Name)
	require.Equal(KindTable, manga.Kind)
	require.Equal("github.com/mangaloom/schemagen/examples/manga", manga.PkgPath)
	require.Equal("id", manga.Fields[1].ForeignKey.Column)
	require.True(manga.Fields[2].Array)
	require.False(manga.Fields[2].IsBase())
	require.Equal(2, manga.Fields[3].Version)
}

func TestParseYAML_UnknownField(t *testing.T) {
	_, err := ParseYAML(strings.NewReader("schemas:\n  - name: A\n    colour: red\n"))
	require.Error(t, err)

	_, err = ParseYAML(strings.NewReader("schemas:\n  - name: A\n    fields:\n      - name: a\n"))
	require.ErrorContains(t, err, "missing type")
}
