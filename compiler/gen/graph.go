package gen

import (
	"errors"

	"go.uber.org/zap"

	"github.com/mangaloom/schemagen/compiler/load"
)

// Graph holds the extracted entities, the inferred relations and the
// resolved creation order. It is rebuilt on every run.
type Graph struct {
	*Config
	// Nodes are the entities in declaration order, composite types first.
	Nodes []*Type
	// Relations inferred by the resolver.
	Relations []Relation
	// Order is the dependency-safe creation order.
	Order []*Type
	// lookup by Go name, then SQL name.
	byName map[string]*Type
	bySQL  map[string]*Type
}

// NewGraph extracts the given schemas, resolves their relations and
// orders them for creation. Schema errors are collected and returned
// together. A graph that cannot be ordered fails with a *GraphError.
func NewGraph(c *Config, schemas ...*load.Schema) (*Graph, error) {
	if c == nil {
		var err error
		if c, err = NewConfig(); err != nil {
			return nil, err
		}
	}
	g := &Graph{
		Config: c,
		byName: make(map[string]*Type),
		bySQL:  make(map[string]*Type),
	}
	var (
		errs   []error
		tables []*Type
	)
	for _, s := range schemas {
		t, err := NewType(c, s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		prev, ok := g.byName[t.Name]
		if !ok {
			prev, ok = g.bySQL[t.SQLName]
		}
		if ok {
			errs = append(errs, NewSchemaError(t.Name, "", "entity redeclared, previous declaration is "+prev.Name, nil))
			continue
		}
		g.byName[t.Name] = t
		g.bySQL[t.SQLName] = t
		if t.IsComposite() {
			g.Nodes = append(g.Nodes, t)
		} else {
			tables = append(tables, t)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	g.Nodes = append(g.Nodes, tables...)
	g.link()
	g.resolve()
	if err := g.order(); err != nil {
		return nil, err
	}
	return g, nil
}

// link resolves foreign-key targets and composite references and builds
// the requires sets.
func (g *Graph) link() {
	for _, t := range g.Nodes {
		for _, c := range t.Columns {
			if fk := c.FK; fk != nil {
				fk.Target, _ = g.Lookup(fk.Type)
				switch {
				case fk.Target == t:
				case fk.Target != nil:
					t.addRequire(fk.Target.Name)
				case !t.Is(fk.Type):
					t.addRequire(fk.Type)
				}
			}
			if c.IsComposite() {
				ref, ok := g.Lookup(c.Ref)
				if !ok || !ref.IsComposite() {
					g.Log().Warn("unknown composite type reference",
						zap.String("type", t.Name),
						zap.String("column", c.Name),
						zap.String("ref", c.Ref),
					)
					continue
				}
				c.RefType = ref
				if ref != t {
					t.addRequire(ref.Name)
				}
			}
		}
	}
}

// Lookup returns the entity with the given Go name or, failing that, SQL name.
func (g *Graph) Lookup(name string) (*Type, bool) {
	if t, ok := g.byName[name]; ok {
		return t, true
	}
	t, ok := g.bySQL[name]
	return t, ok
}

// Tables returns the table entities in declaration order.
func (g *Graph) Tables() []*Type {
	var ts []*Type
	for _, t := range g.Nodes {
		if t.IsTable() {
			ts = append(ts, t)
		}
	}
	return ts
}

// Composites returns the composite types in declaration order.
func (g *Graph) Composites() []*Type {
	var ts []*Type
	for _, t := range g.Nodes {
		if t.IsComposite() {
			ts = append(ts, t)
		}
	}
	return ts
}

// Teardown returns the reverse of the creation order.
func (g *Graph) Teardown() []*Type {
	ts := make([]*Type, len(g.Order))
	for i, t := range g.Order {
		ts[len(g.Order)-1-i] = t
	}
	return ts
}

// RelationsOf returns the relations in which t takes part as an endpoint,
// in resolution order.
func (g *Graph) RelationsOf(t *Type) []Relation {
	var rs []Relation
	for _, r := range g.Relations {
		if r.touches(t) {
			rs = append(rs, r)
		}
	}
	return rs
}

// Generator is the interface implemented by the artifact generators
// consuming a resolved graph.
type Generator interface {
	Generate(*Graph) error
}

// GenerateFunc adapts a function to the Generator interface.
type GenerateFunc func(*Graph) error

// Generate calls f(g).
func (f GenerateFunc) Generate(g *Graph) error { return f(g) }

// Gen runs the generators in order. Each one consumes the graph
// independently; the first failure stops the run.
func (g *Graph) Gen(gens ...Generator) error {
	for _, gen := range gens {
		if err := gen.Generate(g); err != nil {
			return err
		}
	}
	return nil
}
