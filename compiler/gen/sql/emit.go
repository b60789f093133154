package sql

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/mangaloom/schemagen/compiler/gen"
)

func (p Param) code() jen.Code { return jen.Id(p.Name).Add(p.Type) }

func (s *Signature) params() []jen.Code {
	out := make([]jen.Code, len(s.Params))
	for i, p := range s.Params {
		out[i] = p.code()
	}
	return out
}

// impl returns the name of the unexported implementation.
func (s *Service) impl() string { return unexport(s.Name) }

// emit renders the service into f: the query constants, the contract, the
// implementation and its constructor.
func (s *Service) emit(f *jen.File, o *Options) {
	executor := jen.Qual(o.RuntimePackage, "Executor")
	f.Const().DefsFunc(func(g *jen.Group) {
		for _, q := range s.Queries {
			g.Id(q.Name).Op("=").Lit(q.SQL)
		}
	})
	f.Commentf("%s is the data-access contract of the %s table.", s.Name, s.Type.Table())
	f.Type().Id(s.Name).InterfaceFunc(func(g *jen.Group) {
		for i, m := range s.Contract.Methods {
			if i > 0 {
				g.Line()
			}
			g.Comment(m.Doc)
			g.Id(m.Name).Params(m.params()...).Params(m.Results...)
		}
	})
	f.Type().Id(s.impl()).Struct(jen.Id("ex").Add(executor))
	f.Commentf("New%s returns a %[1]s running its statements on ex.", s.Name)
	f.Func().Id("New"+s.Name).Params(jen.Id("ex").Add(executor)).Id(s.Name).Block(
		jen.Return(jen.Op("&").Id(s.impl()).Values(jen.Dict{jen.Id("ex"): jen.Id("ex")})),
	)
	for _, b := range s.Implementation.Bodies {
		f.Commentf("%s implements %s.", b.Name, s.Name)
		f.Func().Params(jen.Id("s").Op("*").Id(s.impl())).Id(b.Name).Params(b.params()...).Params(b.Results...).Block(b.Block...)
	}
	f.Var().Id("_").Id(s.Name).Op("=").Parens(jen.Op("*").Id(s.impl())).Call(jen.Nil())
}

// emitServices renders the aggregate of every service.
func emitServices(c *gen.Config, services []*Service, o *Options) *jen.File {
	f := o.newFile(c)
	f.Comment("Services holds the data-access services of every table.")
	f.Type().Id("Services").StructFunc(func(g *jen.Group) {
		for _, s := range services {
			g.Id(s.Field).Id(s.Name)
		}
	})
	f.Comment("NewServices returns the services running their statements on ex.")
	f.Func().Id("NewServices").Params(jen.Id("ex").Qual(o.RuntimePackage, "Executor")).Op("*").Id("Services").Block(
		jen.Return(jen.Op("&").Id("Services").Values(jen.DictFunc(func(d jen.Dict) {
			for _, s := range services {
				d[jen.Id(s.Field)] = jen.Id("New" + s.Name).Call(jen.Id("ex"))
			}
		}))),
	)
	return f
}

// emitRegister renders the registration of the composite types, the
// services and the enum columns included at the cutoff.
func emitRegister(g *gen.Graph, services []*Service, o *Options) *jen.File {
	f := o.newFile(g.Config)
	f.Comment("Register records the composite types, services and enum columns of the schema in r.")
	f.Func().Id("Register").Params(
		jen.Id("r").Op("*").Qual(o.RuntimePackage, "Registry"),
		jen.Id("s").Op("*").Id("Services"),
	).BlockFunc(func(b *jen.Group) {
		for _, t := range g.Composites() {
			b.Id("r").Dot("RegisterComposite").Call(jen.Lit(t.Table()), nilOf(jen.Qual(o.modelPkg(t), t.Name)))
		}
		for _, s := range services {
			b.Id("r").Dot("RegisterService").Call(jen.Lit(s.Type.Table()), jen.Id("s").Dot(s.Field))
		}
		for _, s := range services {
			for _, c := range s.Type.EnumColumns() {
				if !c.IncludedIn(o.Version) || c.Enum == nil {
					continue
				}
				pkg := c.Enum.PkgPath
				if pkg == "" {
					pkg = o.modelPkg(s.Type)
				}
				b.Id("r").Dot("RegisterEnum").Call(jen.Lit(s.Type.Table()), jen.Lit(c.Name), nilOf(jen.Qual(pkg, c.Enum.Ident)))
			}
		}
	})
	return f
}

// nilOf renders (*T)(nil).
func nilOf(t jen.Code) jen.Code {
	return jen.Parens(jen.Op("*").Add(t)).Call(jen.Nil())
}

// String returns a short description of the service, used in logs.
func (s *Service) String() string {
	return fmt.Sprintf("%s(%s: %d methods, %d lookups)", s.Name, s.Type.Table(), len(s.Contract.Methods), len(s.Lookups))
}
