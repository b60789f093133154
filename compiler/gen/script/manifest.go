package script

import (
	"encoding/json"
	"path"

	"github.com/mangaloom/schemagen/compiler/gen"
)

// Manifest is the ordered list of scripts an external migration runner
// applies.
type Manifest struct {
	Paths []string `json:"paths"`
}

// BuildManifest returns the manifest of g: opts.First, then every entity
// script in creation order with each composite type followed by its
// array-join function, then opts.Last.
func BuildManifest(g *gen.Graph, opts Options) *Manifest {
	opts.fill()
	m := &Manifest{Paths: append([]string{}, opts.First...)}
	for _, t := range g.Order {
		if t.IsTable() {
			m.Paths = append(m.Paths, path.Join(opts.TablesDir, opts.file(t)))
			continue
		}
		m.Paths = append(m.Paths, path.Join(opts.TypesDir, opts.file(t)))
		if t.Join != nil {
			m.Paths = append(m.Paths, path.Join(opts.FunctionsDir, opts.functionFile(t)))
		}
	}
	m.Paths = append(m.Paths, opts.Last...)
	return m
}

// JSON returns the indented JSON encoding of m.
func (m *Manifest) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
