package sql

import (
	"errors"
	"go/token"
	"path"
	"path/filepath"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/mangaloom/schemagen/compiler/gen"
)

const (
	// DefaultRuntimePackage is the import path of the runtime the
	// generated services call into.
	DefaultRuntimePackage = "github.com/mangaloom/schemagen/dialect/sql"
	// ServicesFile and RegisterFile are the names of the shared files.
	ServicesFile = "services.go"
	RegisterFile = "register.go"

	errorsPackage = "github.com/mangaloom/schemagen"
	pqPackage     = "github.com/lib/pq"
)

// Options configures data-access generation.
type Options struct {
	// Target is the output directory.
	Target string
	// Package is the import path of the generated package. Its last
	// element is the package name; Target's base is used when empty.
	Package string
	// Version is the cutoff: columns introduced after it are neither read
	// nor written.
	Version int
	// NamePrefix is prepended to generated type and file names.
	NamePrefix string
	// StripPrefix is removed from table names before deriving Go names.
	StripPrefix string
	// ModelPackage is the import path of models that do not record their
	// own package.
	ModelPackage string
	// RuntimePackage overrides DefaultRuntimePackage.
	RuntimePackage string

	name string
}

func (o *Options) defaults() error {
	if o.Target == "" {
		return gen.NewConfigError("Target", nil, "missing target directory")
	}
	if err := o.fill(); err != nil {
		return err
	}
	return o.checkName()
}

// fill sets the defaults that do not depend on the target.
func (o *Options) fill() error {
	if o.Version < 0 {
		return gen.NewConfigError("Version", o.Version, "version cutoff cannot be negative")
	}
	if o.RuntimePackage == "" {
		o.RuntimePackage = DefaultRuntimePackage
	}
	switch {
	case o.Package != "":
		o.name = path.Base(o.Package)
	case o.Target != "":
		o.name = filepath.Base(o.Target)
	}
	if o.NamePrefix != "" && !token.IsExported(o.NamePrefix) {
		return gen.NewConfigError("NamePrefix", o.NamePrefix, "name prefix must start with an upper-case letter")
	}
	return nil
}

// checkName validates the name of the package files are emitted in.
func (o *Options) checkName() error {
	if !token.IsIdentifier(o.name) || token.Lookup(o.name).IsKeyword() {
		return gen.NewConfigError("Package", o.name, "invalid package name")
	}
	return nil
}

func (o *Options) newFile(c *gen.Config) *jen.File {
	if o.Package != "" {
		return c.NewFilePathName(o.Package, o.name)
	}
	return c.NewFile(o.name)
}

// modelPkg returns the import path of the model of t.
func (o *Options) modelPkg(t *gen.Type) string {
	switch {
	case t.PkgPath != "":
		return t.PkgPath
	case o.ModelPackage != "":
		return o.ModelPackage
	default:
		return o.Package
	}
}

// File is one generated Go file. Path is relative to the target.
type File struct {
	Path string
	File *jen.File
}

// Generate builds and writes the data-access code of g. Tables whose
// service cannot be built are skipped and their errors returned joined,
// after every other file was written.
func Generate(g *gen.Graph, opts Options) error {
	if err := opts.defaults(); err != nil {
		return err
	}
	files, err := Build(g, opts)
	for _, f := range files {
		p := filepath.Join(opts.Target, f.Path)
		if err := gen.WriteGo(p, f.File); err != nil {
			return err
		}
		g.Log().Debug("service written", zap.String("path", p))
	}
	return err
}

// Generator returns a gen.Generator running Generate with opts.
func Generator(opts Options) gen.Generator {
	return gen.GenerateFunc(func(g *gen.Graph) error {
		return Generate(g, opts)
	})
}

// Build renders the data-access files of g without writing them: one
// service file per table in creation order, then the aggregate and the
// registration files.
func Build(g *gen.Graph, opts Options) ([]*File, error) {
	if err := opts.fill(); err != nil {
		return nil, err
	}
	if err := opts.checkName(); err != nil {
		return nil, err
	}
	var (
		errs     []error
		files    []*File
		services []*Service
	)
	for _, t := range g.Order {
		if !t.IsTable() {
			continue
		}
		s, err := NewService(g, t, opts)
		if err != nil {
			g.Log().Error("service failed", zap.String("type", t.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		g.Log().Debug("service built", zap.Stringer("service", s))
		f := opts.newFile(g.Config)
		s.emit(f, &opts)
		files = append(files, &File{Path: s.File(), File: f})
		services = append(services, s)
	}
	files = append(files,
		&File{Path: ServicesFile, File: emitServices(g.Config, services, &opts)},
		&File{Path: RegisterFile, File: emitRegister(g, services, &opts)},
	)
	return files, errors.Join(errs...)
}
