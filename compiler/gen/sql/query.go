package sql

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"

	"github.com/mangaloom/schemagen/compiler/gen"
)

// Statements are built once, at generation time. The builders receive nil
// placeholder values and only the rendered SQL is kept: the generated code
// passes the real arguments in the same order.

// Table aliases used by relation lookups.
const (
	rootAlias   = "r"
	targetAlias = "t"
	bridgeAlias = "b"
)

var quote = gen.QuoteIdent

// queries builds the statements of one table at a version cutoff.
type queries struct {
	version    int
	softDelete string
}

func qualify(alias, column string) string {
	if alias == "" {
		return quote(column)
	}
	return alias + "." + quote(column)
}

func aliased(t *gen.Type, alias string) string {
	return quote(t.Table()) + " " + alias
}

func (q *queries) included(cols []*gen.Column) bool {
	for _, c := range cols {
		if c == nil || !c.IncludedIn(q.version) {
			return false
		}
	}
	return true
}

// selected returns the columns read from t.
func (q *queries) selected(t *gen.Type) []*gen.Column {
	return t.Included(q.version)
}

func (q *queries) selectList(t *gen.Type, alias string) []string {
	cols := q.selected(t)
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = qualify(alias, c.Name)
	}
	return out
}

// writable returns the columns written by inserts and updates.
func (q *queries) writable(t *gen.Type) []*gen.Column {
	var cols []*gen.Column
	for _, c := range t.Included(q.version) {
		if !c.Ignore {
			cols = append(cols, c)
		}
	}
	return cols
}

// insertColumns returns the written columns minus a primary key the
// database generates.
func (q *queries) insertColumns(t *gen.Type) []*gen.Column {
	var cols []*gen.Column
	for _, c := range q.writable(t) {
		if c.PK && generated(c) {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// updateColumns returns the written non-key columns.
func (q *queries) updateColumns(t *gen.Type) []*gen.Column {
	var cols []*gen.Column
	for _, c := range q.writable(t) {
		if !c.PK {
			cols = append(cols, c)
		}
	}
	return cols
}

// generated reports if the database fills the primary key c.
func generated(c *gen.Column) bool {
	return c.Default != "" || c.IsUUID() && c.FK == nil && c.Owner().ID() == c
}

// notDeleted returns the soft-delete filter of t, if t has the column.
func (q *queries) notDeleted(cond *sqlbuilder.Cond, t *gen.Type, alias string) []string {
	c, ok := t.Column(q.softDelete)
	if !ok || !c.IncludedIn(q.version) {
		return nil
	}
	return []string{cond.IsNull(qualify(alias, c.Name))}
}

// fetch selects the row of t by id, excluding soft-deleted rows.
func (q *queries) fetch(t *gen.Type) string {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(q.selectList(t, "")...).From(quote(t.Table()))
	sb.Where(append([]string{sb.Equal(quote(t.ID().Name), nil)}, q.notDeleted(&sb.Cond, t, "")...)...)
	query, _ := sb.Build()
	return query
}

// all selects every row of t, excluding soft-deleted rows.
func (q *queries) all(t *gen.Type) string {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(q.selectList(t, "")...).From(quote(t.Table()))
	if where := q.notDeleted(&sb.Cond, t, ""); len(where) > 0 {
		sb.Where(where...)
	}
	query, _ := sb.Build()
	return query
}

// insert inserts cols into t, returning the id if t has a single key.
// A non-empty conflict clause turns the insert into an upsert.
func (q *queries) insert(t *gen.Type, cols []*gen.Column, conflict string) string {
	if len(cols) == 0 {
		query := "INSERT INTO " + quote(t.Table()) + " DEFAULT VALUES"
		if id := t.ID(); id != nil {
			query += " RETURNING " + quote(id.Name)
		}
		return query
	}
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(quote(t.Table())).Cols(columnNames(cols)...).Values(make([]any, len(cols))...)
	if conflict != "" {
		ib.SQL(conflict)
	}
	if id := t.ID(); id != nil {
		ib.Returning(quote(id.Name))
	}
	query, _ := ib.Build()
	return query
}

// update sets cols of the row of t matching the id. The id is the last
// argument.
func (q *queries) update(t *gen.Type, cols []*gen.Column) string {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(quote(t.Table()))
	assigns := make([]string, len(cols))
	for i, c := range cols {
		assigns[i] = ub.Assign(quote(c.Name), nil)
	}
	ub.Set(assigns...).Where(ub.Equal(quote(t.ID().Name), nil))
	query, _ := ub.Build()
	return query
}

// conflictTarget returns the columns of the first included unique column
// or, failing that, the included members of the first unique group.
func (q *queries) conflictTarget(t *gen.Type) []*gen.Column {
	for _, c := range t.Included(q.version) {
		if c.Unique {
			return []*gen.Column{c}
		}
	}
	for _, g := range t.UniqueGroups() {
		var cols []*gen.Column
		for _, c := range g.Columns {
			if c.IncludedIn(q.version) {
				cols = append(cols, c)
			}
		}
		if len(cols) > 0 {
			return cols
		}
	}
	return nil
}

// onConflict renders the upsert clause updating every inserted column
// outside the conflict target. With nothing left to update the first
// target column is rewritten so that RETURNING always yields the row.
func onConflict(target, inserted []*gen.Column) string {
	in := make(map[*gen.Column]bool, len(target))
	for _, c := range target {
		in[c] = true
	}
	var sets []string
	for _, c := range inserted {
		if !in[c] && !c.PK {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%[1]s", quote(c.Name)))
		}
	}
	if len(sets) == 0 {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%[1]s", quote(target[0].Name)))
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", gen.QuoteIdents(names(target)...), strings.Join(sets, ", "))
}

// lookup selects the rows of target joined to the root row by the given
// join clauses. The root id is the first argument; extra conditions take
// the following ones.
func (q *queries) lookup(root, target *gen.Type, joins []join, extra func(*sqlbuilder.Cond) []string) string {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(q.selectList(target, targetAlias)...).From(aliased(target, targetAlias))
	for _, j := range joins {
		sb.Join(aliased(j.table, j.alias), j.on)
	}
	where := []string{sb.Equal(qualify(rootAlias, root.ID().Name), nil)}
	if extra != nil {
		where = append(where, extra(&sb.Cond)...)
	}
	where = append(where, q.notDeleted(&sb.Cond, target, targetAlias)...)
	for _, j := range joins {
		where = append(where, q.notDeleted(&sb.Cond, j.table, j.alias)...)
	}
	sb.Where(where...)
	query, _ := sb.Build()
	return query
}

// join is one JOIN clause of a lookup.
type join struct {
	table *gen.Type
	alias string
	on    string
}

func on(leftAlias, left, rightAlias, right string) string {
	return qualify(leftAlias, left) + " = " + qualify(rightAlias, right)
}

func columnNames(cols []*gen.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quote(c.Name)
	}
	return out
}

func names(cols []*gen.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
