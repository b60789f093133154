package gen

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangaloom/schemagen/compiler/load"
)

// checkOrder asserts every entity appears once, after all its requirements.
func checkOrder(t *testing.T, g *Graph) {
	t.Helper()
	pos := make(map[string]int, len(g.Order))
	for i, n := range g.Order {
		_, dup := pos[n.Name]
		require.False(t, dup, "entity %s ordered twice", n.Name)
		pos[n.Name] = i
	}
	require.Len(t, g.Order, len(g.Nodes))
	for _, n := range g.Nodes {
		for _, r := range n.Requires {
			require.Less(t, pos[r], pos[n.Name], "%s must precede %s", r, n.Name)
		}
	}
}

func TestOrder(t *testing.T) {
	g, err := NewGraph(MustNewConfig(),
		table("Chapter", fk("manga_id", "Manga")),
		table("MangaTag", fk("manga_id", "Manga"), fk("tag_id", "Tag")),
		table("Manga", fk("source_id", "Source"), &load.Field{Name: "titles", Type: "MangaTitle", Array: true}),
		table("Tag"),
		table("Source"),
		composite("MangaTitle", text("title")),
	)
	require.NoError(t, err)
	checkOrder(t, g)
	assert.Equal(t, []string{"MangaTitle", "Tag", "Source", "Manga", "Chapter", "MangaTag"}, typeNames(g.Order))
	assert.Equal(t, []string{"Source", "MangaTitle"}, g.Nodes[3].Requires)
}

func TestOrder_SelfReference(t *testing.T) {
	g, err := NewGraph(MustNewConfig(), table("Person", &load.Field{Name: "mentor_id", Type: load.TypeUUID, ForeignKey: &load.ForeignKey{Type: "Person", Column: "id"}}))
	require.NoError(t, err)
	assert.Empty(t, g.Nodes[0].Requires)
	assert.Equal(t, []string{"Person"}, typeNames(g.Order))
}

// Random acyclic graphs: entity i may only reference entities j < i,
// declared in shuffled order.
func TestOrder_RandomAcyclic(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for run := 0; run < 25; run++ {
		n := 2 + r.Intn(20)
		schemas := make([]*load.Schema, n)
		for i := 0; i < n; i++ {
			var fields []*load.Field
			for j := 0; j < i; j++ {
				if r.Intn(3) == 0 {
					fields = append(fields, fk(fmt.Sprintf("e%d_id", j), fmt.Sprintf("E%d", j)))
				}
			}
			schemas[i] = table(fmt.Sprintf("E%d", i), fields...)
		}
		r.Shuffle(n, func(i, j int) { schemas[i], schemas[j] = schemas[j], schemas[i] })

		g, err := NewGraph(MustNewConfig(), schemas...)
		require.NoError(t, err)
		checkOrder(t, g)
	}
}

func TestOrder_Cycle(t *testing.T) {
	c, logs := observed(t)
	_, err := NewGraph(c,
		table("A", fk("b_id", "B")),
		table("B", fk("a_id", "A")),
		table("C"),
	)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnresolvableGraph))

	var gerr *GraphError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, []string{"A", "B"}, gerr.Entities())
	assert.Equal(t, []string{"B"}, gerr.Stuck["A"])
	assert.Equal(t, []string{"A"}, gerr.Stuck["B"])
	assert.Contains(t, err.Error(), "A requires [B]")
	assert.Contains(t, err.Error(), "B requires [A]")

	stuck := logs.FilterMessage("unresolvable entity")
	require.Equal(t, 2, stuck.Len())
	assert.Equal(t, "A", stuck.All()[0].ContextMap()["type"])
}

func TestOrder_DanglingReference(t *testing.T) {
	_, err := NewGraph(MustNewConfig(),
		table("Chapter", fk("manga_id", "Manga")),
		table("Page", fk("chapter_id", "Chapter")),
	)
	var gerr *GraphError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, []string{"Chapter", "Page"}, gerr.Entities())
	assert.Equal(t, []string{"Manga"}, gerr.Stuck["Chapter"])
	assert.Equal(t, []string{"Chapter"}, gerr.Stuck["Page"])
}

// Replaying the teardown order against the forward-created schema never
// drops an entity that a still-present entity requires.
func TestTeardown(t *testing.T) {
	g, err := NewGraph(MustNewConfig(),
		table("Chapter", fk("manga_id", "Manga")),
		table("Manga", fk("source_id", "Source"), &load.Field{Name: "titles", Type: "MangaTitle", Array: true}),
		table("Source"),
		composite("MangaTitle", text("title")),
	)
	require.NoError(t, err)

	present := make(map[string]bool)
	for _, n := range g.Order {
		present[n.Name] = true
	}
	for _, n := range g.Teardown() {
		for _, other := range g.Nodes {
			if present[other.Name] && other != n {
				assert.False(t, other.DependsOn(n.Name), "%s dropped while %s still requires it", n.Name, other.Name)
			}
		}
		delete(present, n.Name)
	}
	assert.Empty(t, present)
	assert.Equal(t, []string{"Chapter", "Manga", "Source", "MangaTitle"}, typeNames(g.Teardown()))
}
