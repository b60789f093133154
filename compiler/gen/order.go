package gen

import (
	"go.uber.org/zap"
)

// order computes the creation order of the graph nodes with an iterative
// fixed point: each pass moves every entity whose requirements are all
// resolved, in declaration order. A pass without progress means a cycle or
// a dangling reference, and every stuck entity is reported.
func (g *Graph) order() error {
	var (
		remaining = append([]*Type(nil), g.Nodes...)
		resolved  = make(map[string]bool, len(g.Nodes))
	)
	g.Order = make([]*Type, 0, len(g.Nodes))
	for len(remaining) > 0 {
		var next []*Type
		for _, t := range remaining {
			if len(missing(t, resolved)) > 0 {
				next = append(next, t)
				continue
			}
			resolved[t.Name] = true
			g.Order = append(g.Order, t)
		}
		if len(next) == len(remaining) {
			return g.stuck(next, resolved)
		}
		remaining = next
	}
	return nil
}

func (g *Graph) stuck(remaining []*Type, resolved map[string]bool) error {
	err := &GraphError{Stuck: make(map[string][]string, len(remaining))}
	for _, t := range remaining {
		reqs := missing(t, resolved)
		err.Stuck[t.Name] = reqs
		g.Log().Error("unresolvable entity",
			zap.String("type", t.Name),
			zap.Strings("requires", reqs),
		)
	}
	return err
}

// missing returns the requirements of t not resolved yet.
func missing(t *Type, resolved map[string]bool) []string {
	var reqs []string
	for _, r := range t.Requires {
		if !resolved[r] {
			reqs = append(reqs, r)
		}
	}
	return reqs
}
