// Package script renders the SQL scripts of a resolved entity graph: one
// file per table and composite type, the array-join functions, a drop
// script and the JSON manifest an external migration runner applies in
// order.
//
// Generated layout:
//
//	{target}/
//	├── {types}/{prefix}{type}.sql          # CREATE TYPE, guarded
//	├── {functions}/{prefix}{function}.sql  # array-join functions
//	├── {tables}/{prefix}{table}.sql        # CREATE TABLE + migration trailer
//	├── drop_tables.sql                     # teardown in reverse order
//	└── manifest.json                       # {"paths": [...]}
//
// Every subdirectory also receives an atlas.sum integrity file.
package script

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"ariga.io/atlas/sql/migrate"
	"go.uber.org/zap"

	"github.com/mangaloom/schemagen/compiler/gen"
)

// Default names of the generated directories and files.
const (
	DefaultTablesDir    = "tables"
	DefaultTypesDir     = "types"
	DefaultFunctionsDir = "functions"
	DefaultManifest     = "manifest.json"
	DropFile            = "drop_tables.sql"
)

// Options configures script generation.
type Options struct {
	// Target is the output directory.
	Target string
	// TablesDir, TypesDir and FunctionsDir are the subdirectories of
	// Target receiving table, composite type and function scripts.
	TablesDir    string
	TypesDir     string
	FunctionsDir string
	// Manifest is the name of the manifest file under Target.
	Manifest string
	// Prefix is prepended to entity file names that declare no prefix
	// of their own.
	Prefix string
	// Version is the cutoff: columns introduced after it are omitted.
	Version int
	// First and Last are literal paths wrapping the generated ones in
	// the manifest.
	First []string
	Last  []string
	// NoChecksum disables the atlas.sum files.
	NoChecksum bool
}

func (o *Options) defaults() error {
	if o.Target == "" {
		return gen.NewConfigError("Target", nil, "missing target directory")
	}
	if o.Version < 0 {
		return gen.NewConfigError("Version", o.Version, "version cutoff cannot be negative")
	}
	o.fill()
	return nil
}

// fill sets the default directory and manifest names.
func (o *Options) fill() {
	if o.TablesDir == "" {
		o.TablesDir = DefaultTablesDir
	}
	if o.TypesDir == "" {
		o.TypesDir = DefaultTypesDir
	}
	if o.FunctionsDir == "" {
		o.FunctionsDir = DefaultFunctionsDir
	}
	if o.Manifest == "" {
		o.Manifest = DefaultManifest
	}
}

// file returns the file name of t.
func (o *Options) file(t *gen.Type) string {
	if t.Prefix == "" {
		return o.Prefix + t.File()
	}
	return t.File()
}

// functionFile returns the file name of the array-join function of t.
func (o *Options) functionFile(t *gen.Type) string {
	if t.Prefix == "" {
		return o.Prefix + t.FunctionFile()
	}
	return t.FunctionFile()
}

// Script is one rendered output file. Path is relative to the target
// and slash-separated.
type Script struct {
	Path string
	Body string
}

// Generate renders and writes every script of g. Schema errors are fatal
// for the owning entity only: the other entities are still written and
// the errors are returned joined. The drop script, manifest and checksum
// files are written only when every entity rendered. I/O errors stop the
// run immediately.
func Generate(g *gen.Graph, opts Options) error {
	if err := opts.defaults(); err != nil {
		return err
	}
	scripts, errs := Render(g, opts)
	for _, s := range scripts {
		if err := write(g, opts.Target, s); err != nil {
			return err
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	manifest, err := BuildManifest(g, opts).JSON()
	if err != nil {
		return gen.NewGenerationError("manifest", opts.Manifest, "", err)
	}
	for _, s := range []Script{
		{Path: DropFile, Body: Drop(g)},
		{Path: opts.Manifest, Body: string(manifest)},
	} {
		if err := write(g, opts.Target, s); err != nil {
			return err
		}
	}
	if opts.NoChecksum {
		return nil
	}
	return checksum(opts.Target, dirs(scripts))
}

// Generator returns a gen.Generator running Generate with opts.
func Generator(opts Options) gen.Generator {
	return gen.GenerateFunc(func(g *gen.Graph) error {
		return Generate(g, opts)
	})
}

// Render renders the entity scripts of g in creation order without
// writing them. The returned errors belong to the entities missing from
// the returned scripts.
func Render(g *gen.Graph, opts Options) ([]Script, []error) {
	var (
		errs    []error
		scripts []Script
	)
	opts.fill()
	add := func(t *gen.Type, p string, render func() (string, error)) bool {
		body, err := render()
		if err != nil {
			g.Log().Error("script failed", zap.String("type", t.Name), zap.String("path", p), zap.Error(err))
			errs = append(errs, err)
			return false
		}
		scripts = append(scripts, Script{Path: p, Body: body})
		return true
	}
	for _, t := range g.Order {
		switch {
		case t.IsComposite():
			ok := add(t, path.Join(opts.TypesDir, opts.file(t)), func() (string, error) { return Composite(t, opts.Version) })
			if ok && t.Join != nil {
				add(t, path.Join(opts.FunctionsDir, opts.functionFile(t)), func() (string, error) { return JoinFunction(t) })
			}
		default:
			add(t, path.Join(opts.TablesDir, opts.file(t)), func() (string, error) { return Table(t, opts.Version) })
		}
	}
	return scripts, errs
}

func write(g *gen.Graph, target string, s Script) error {
	p := filepath.Join(target, filepath.FromSlash(s.Path))
	err := gen.WriteFile(p, func(w io.Writer) error {
		if path.Ext(s.Path) == ".sql" {
			if _, err := fmt.Fprintf(w, "-- %s\n\n", g.HeaderText()); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, s.Body)
		return err
	})
	if err != nil {
		return err
	}
	g.Log().Debug("script written", zap.String("path", p))
	return nil
}

// dirs returns the distinct directories of the given scripts.
func dirs(scripts []Script) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, s := range scripts {
		d := path.Dir(s.Path)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// checksum writes an atlas.sum file into every given subdirectory.
func checksum(target string, subdirs []string) error {
	for _, d := range subdirs {
		dir, err := migrate.NewLocalDir(filepath.Join(target, filepath.FromSlash(d)))
		if err != nil {
			return fmt.Errorf("open %s: %w", d, err)
		}
		sum, err := dir.Checksum()
		if err != nil {
			return fmt.Errorf("checksum %s: %w", d, err)
		}
		if err := migrate.WriteSumFile(dir, sum); err != nil {
			return fmt.Errorf("write %s: %w", migrate.HashFileName, err)
		}
	}
	return nil
}

// Verify checks the atlas.sum file of every script subdirectory under
// target that has one. A script edited after generation fails with
// migrate.ErrChecksumMismatch.
func Verify(target string, opts Options) error {
	opts.Target = target
	if err := opts.defaults(); err != nil {
		return err
	}
	for _, d := range []string{opts.TypesDir, opts.FunctionsDir, opts.TablesDir} {
		p := filepath.Join(target, d)
		if _, err := os.Stat(filepath.Join(p, migrate.HashFileName)); errors.Is(err, os.ErrNotExist) {
			continue
		}
		dir, err := migrate.NewLocalDir(p)
		if err != nil {
			return err
		}
		if err := migrate.Validate(dir); err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
	}
	return nil
}
