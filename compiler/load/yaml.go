package load

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is a YAML schema document. Package is the Go import path of the
// models the descriptors stand for, used by the data-access generator.
type Document struct {
	Package string    `yaml:"package,omitempty"`
	Schemas []*Schema `yaml:"schemas"`
}

// ParseYAML decodes a schema document. Unknown keys are rejected so that
// misspelled markers do not silently drop columns.
func ParseYAML(r io.Reader) (*Document, error) {
	doc := &Document{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	for _, s := range doc.Schemas {
		if s.PkgPath == "" {
			s.PkgPath = doc.Package
		}
		if err := s.defaults(); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// ReadFile reads and decodes the schema document at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := ParseYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ReadFiles reads every document and concatenates their schemas in the
// given file order.
func ReadFiles(paths ...string) ([]*Schema, error) {
	var schemas []*Schema
	for _, p := range paths {
		doc, err := ReadFile(p)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, doc.Schemas...)
	}
	return schemas, nil
}
