package gen

import (
	"fmt"

	"go.uber.org/zap"
)

// Relation is one of *OneToMany, *Bridge or *AuditSet.
type Relation interface {
	// Kind returns "o2m", "bridge" or "audit".
	Kind() string
	touches(*Type) bool
}

type (
	// OneToMany links every row of Many to one row of One through Column.
	OneToMany struct {
		One  *Type
		Many *Type
		// Column is the foreign-key column on Many, Target the referenced
		// column on One.
		Column *Column
		Target *Column
	}

	// BridgeSide is one side of a bridge: the entity, its referenced
	// column (Own) and the bridge column pointing at it.
	BridgeSide struct {
		Type   *Type
		Own    *Column
		Column *Column
	}

	// Bridge is a many-to-many association through Table.
	Bridge struct {
		Parent BridgeSide
		Child  BridgeSide
		Table  *Type
	}

	// AuditCandidate is one possible target of an audit log row: rows whose
	// discriminator equals Alias and whose target id equals PK.
	AuditCandidate struct {
		Target *Type
		Alias  string
		PK     *Column
	}

	// AuditSet holds the candidate targets of an audit-log table, one per
	// non-audit table with a single-column primary key.
	AuditSet struct {
		Audit         *Type
		Discriminator *Column
		TargetID      *Column
		PK            *Column
		Candidates    []*AuditCandidate
	}
)

// Kind implements Relation.
func (*OneToMany) Kind() string { return "o2m" }

// Kind implements Relation.
func (*Bridge) Kind() string { return "bridge" }

// Kind implements Relation.
func (*AuditSet) Kind() string { return "audit" }

func (r *OneToMany) touches(t *Type) bool { return r.One == t || r.Many == t }
func (r *Bridge) touches(t *Type) bool    { return r.Parent.Type == t || r.Child.Type == t }
func (r *AuditSet) touches(t *Type) bool  { return r.Audit == t }

// SelfReference reports if the relation points back at its own table.
func (r *OneToMany) SelfReference() bool { return r.One == r.Many }

// Other returns the side of the bridge opposite to t, and the side of t.
func (r *Bridge) Other(t *Type) (other, self BridgeSide) {
	if r.Parent.Type == t {
		return r.Child, r.Parent
	}
	return r.Parent, r.Child
}

// resolve infers the relations of the graph. Bridges are resolved first so
// that the foreign keys they consume do not produce one-to-many relations.
// Relations that cannot be resolved are logged and skipped.
func (g *Graph) resolve() {
	consumed := make(map[*Column]bool)
	for _, t := range g.Tables() {
		for _, decl := range t.Bridges {
			if b, err := g.resolveBridge(t, decl, consumed); err != nil {
				g.skip(err)
			} else {
				g.Relations = append(g.Relations, b)
			}
		}
	}
	for _, t := range g.Tables() {
		for _, c := range t.Columns {
			if c.FK == nil || c.FK.NoRelation || consumed[c] {
				continue
			}
			if r, err := g.resolveOneToMany(t, c); err != nil {
				g.skip(err)
			} else {
				g.Relations = append(g.Relations, r)
			}
		}
	}
	for _, t := range g.Tables() {
		if !t.IsAudit() {
			continue
		}
		if r, err := g.resolveAudit(t); err != nil {
			g.skip(err)
		} else {
			g.Relations = append(g.Relations, r)
		}
	}
}

func (g *Graph) skip(err *RelationError) {
	g.Log().Warn("skipping relation",
		zap.String("kind", err.Kind),
		zap.String("from", err.From),
		zap.String("to", err.To),
		zap.String("column", err.Column),
		zap.Error(err),
	)
}

// resolveBridge resolves one (parent, child) marker of t. Each side needs
// exactly one unconsumed foreign key toward it; a self-bridge needs exactly
// two, assigned in declaration order.
func (g *Graph) resolveBridge(t *Type, decl *BridgeDecl, consumed map[*Column]bool) (*Bridge, *RelationError) {
	parent, ok := g.Lookup(decl.Parent)
	if !ok || !parent.IsTable() {
		return nil, NewRelationError("bridge", t.Name, decl.Parent, "", "unknown parent table")
	}
	child, ok := g.Lookup(decl.Child)
	if !ok || !child.IsTable() {
		return nil, NewRelationError("bridge", t.Name, decl.Child, "", "unknown child table")
	}
	toward := func(target *Type) []*Column {
		var cols []*Column
		for _, c := range t.Columns {
			if c.FK != nil && c.FK.Target == target && !consumed[c] {
				cols = append(cols, c)
			}
		}
		return cols
	}
	var pcol, ccol *Column
	if parent == child {
		cols := toward(parent)
		if len(cols) != 2 {
			return nil, NewRelationError("bridge", t.Name, parent.Name, "", fmt.Sprintf("self bridge requires exactly 2 foreign keys, found %d", len(cols)))
		}
		pcol, ccol = cols[0], cols[1]
	} else {
		pcols, ccols := toward(parent), toward(child)
		if len(pcols) != 1 {
			return nil, NewRelationError("bridge", t.Name, parent.Name, "", fmt.Sprintf("expected exactly 1 foreign key toward parent, found %d", len(pcols)))
		}
		if len(ccols) != 1 {
			return nil, NewRelationError("bridge", t.Name, child.Name, "", fmt.Sprintf("expected exactly 1 foreign key toward child, found %d", len(ccols)))
		}
		pcol, ccol = pcols[0], ccols[0]
	}
	pown, ok := parent.Column(pcol.FK.Column)
	if !ok {
		return nil, NewRelationError("bridge", t.Name, parent.Name, pcol.FK.Column, "target column not found")
	}
	cown, ok := child.Column(ccol.FK.Column)
	if !ok {
		return nil, NewRelationError("bridge", t.Name, child.Name, ccol.FK.Column, "target column not found")
	}
	consumed[pcol], consumed[ccol] = true, true
	return &Bridge{
		Parent: BridgeSide{Type: parent, Own: pown, Column: pcol},
		Child:  BridgeSide{Type: child, Own: cown, Column: ccol},
		Table:  t,
	}, nil
}

func (g *Graph) resolveOneToMany(t *Type, c *Column) (*OneToMany, *RelationError) {
	one := c.FK.Target
	if one == nil || !one.IsTable() {
		return nil, NewRelationError("o2m", t.Name, c.FK.Type, c.Name, "unknown target table")
	}
	target, ok := one.Column(c.FK.Column)
	if !ok {
		return nil, NewRelationError("o2m", t.Name, one.Name, c.FK.Column, "target column not found")
	}
	return &OneToMany{One: one, Many: t, Column: c, Target: target}, nil
}

// resolveAudit builds the candidate set of audit table a: one candidate
// per other non-audit table with a single-column primary key.
func (g *Graph) resolveAudit(a *Type) (*AuditSet, *RelationError) {
	pk := a.ID()
	if pk == nil {
		return nil, NewRelationError("audit", a.Name, "", "", "audit table requires a single-column primary key")
	}
	disc, _ := a.Column(a.Audit.Discriminator)
	tid, _ := a.Column(a.Audit.TargetID)
	set := &AuditSet{Audit: a, Discriminator: disc, TargetID: tid, PK: pk}
	for _, t := range g.Tables() {
		if t == a || t.IsAudit() {
			continue
		}
		id := t.ID()
		if id == nil {
			continue
		}
		set.Candidates = append(set.Candidates, &AuditCandidate{Target: t, Alias: t.DiscriminatorValue(), PK: id})
	}
	if len(set.Candidates) == 0 {
		return nil, NewRelationError("audit", a.Name, "", "", "no candidate target tables")
	}
	return set, nil
}
