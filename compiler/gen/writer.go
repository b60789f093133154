package gen

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"
)

// WriteFile creates path, including its parent directories, and streams
// the output of render through a buffered writer. The buffer is flushed
// and the file closed before WriteFile returns.
func WriteFile(path string, render func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	w := bufio.NewWriter(f)
	if err := render(w); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// NewFile creates a Jennifer file carrying the configured header comment.
func (c *Config) NewFile(pkg string) *jen.File {
	f := jen.NewFile(pkg)
	f.HeaderComment(c.HeaderText())
	return f
}

// NewFilePathName is like NewFile for a package with a known import path,
// so that references to the package itself stay unqualified.
func (c *Config) NewFilePathName(path, name string) *jen.File {
	f := jen.NewFilePathName(path, name)
	f.HeaderComment(c.HeaderText())
	return f
}

// HeaderText returns the configured header, or DefaultHeader.
func (c *Config) HeaderText() string {
	if c != nil && c.Header != "" {
		return c.Header
	}
	return DefaultHeader
}

// WriteGo renders the Jennifer file, runs it through goimports and writes
// it to path. On a formatting failure the unformatted source is written
// next to path for debugging.
func WriteGo(path string, f *jen.File) error {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return NewGenerationError("render", path, "", err)
	}
	formatted, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		debugPath := path + ".error"
		_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return NewGenerationError("format", path, "unformatted source written to "+debugPath, err)
	}
	return WriteFile(path, func(w io.Writer) error {
		_, err := w.Write(formatted)
		return err
	})
}
