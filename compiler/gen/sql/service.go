package sql

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"
	"github.com/huandu/go-sqlbuilder"

	"github.com/mangaloom/schemagen/compiler/gen"
)

type (
	// Service is the data-access IR of one table: the contract its
	// interface declares and the implementation satisfying it.
	Service struct {
		Type *gen.Type
		// Name is the interface name, Field the name of the service in
		// the Services aggregate.
		Name  string
		Field string
		// Contract lists the interface methods, Implementation their bodies
		// in the same order.
		Contract       Contract
		Implementation Implementation
		// Queries are the statements of the table, emitted as constants.
		Queries []Query
		// Lookups are the relation statements run by
		// FetchWithRelationships, in emission order.
		Lookups []*Lookup
	}

	// Contract is the interface of a service.
	Contract struct {
		Methods []*Signature
	}

	// Implementation holds the method bodies of a service.
	Implementation struct {
		Bodies []*Body
	}

	// Signature is one method of a contract.
	Signature struct {
		Name    string
		Doc     string
		Params  []Param
		Results []jen.Code
	}

	// Param is a named method parameter.
	Param struct {
		Name string
		Type jen.Code
	}

	// Body is the implementation of a signature.
	Body struct {
		*Signature
		Block []jen.Code
	}

	// Query is a named SQL statement.
	Query struct {
		Name string
		SQL  string
	}

	// Lookup is one relation statement of a relationship batch.
	Lookup struct {
		Kind   LookupKind
		Name   string
		Target *gen.Type
		Query  string
		// Discriminator is the extra argument of audit lookups.
		Discriminator string
	}
)

// LookupKind tells relation statements apart.
type LookupKind uint8

// Lookup kinds.
const (
	LookupParent LookupKind = iota + 1
	LookupChildren
	LookupBridge
	LookupAudit
)

// String implements fmt.Stringer.
func (k LookupKind) String() string {
	switch k {
	case LookupParent:
		return "parent"
	case LookupChildren:
		return "children"
	case LookupBridge:
		return "bridge"
	case LookupAudit:
		return "audit"
	default:
		return "invalid"
	}
}

// File returns the name of the generated file of the service.
func (s *Service) File() string { return gen.Snake(s.Field) + "_service.go" }

// Method returns the signature with the given name.
func (s *Service) Method(name string) (*Signature, bool) {
	for _, m := range s.Contract.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Query returns the SQL of the named statement.
func (s *Service) Query(name string) (string, bool) {
	for _, q := range s.Queries {
		if q.Name == name {
			return q.SQL, true
		}
	}
	return "", false
}

// builder accumulates the IR of one service.
type builder struct {
	*Service
	g    *gen.Graph
	opts *Options
	q    *queries
	// prefix of the query constant names.
	prefix string
	model  jen.Code
}

// NewService builds the data-access IR of table t at the cutoff of opts.
// The package is validated only when one is set.
func NewService(g *gen.Graph, t *gen.Type, opts Options) (*Service, error) {
	if err := opts.fill(); err != nil {
		return nil, err
	}
	if opts.name != "" {
		if err := opts.checkName(); err != nil {
			return nil, err
		}
	}
	if !t.IsTable() {
		return nil, gen.NewGenerationError("service", t.Name, fmt.Sprintf("%s is not a table", t.Kind), nil)
	}
	if len(t.Included(opts.Version)) == 0 {
		return nil, gen.NewGenerationError("service", t.Name, fmt.Sprintf("no column at version %d", opts.Version), nil)
	}
	base := opts.NamePrefix + gen.Pascal(strings.TrimPrefix(t.Table(), opts.StripPrefix))
	if !isExported(base) {
		return nil, gen.NewGenerationError("service", t.Name, fmt.Sprintf("invalid Go name %q", base), nil)
	}
	b := &builder{
		Service: &Service{Type: t, Name: base + "Service", Field: base},
		g:       g,
		opts:    &opts,
		q:       &queries{version: opts.Version, softDelete: g.SoftDeleteColumn},
		prefix:  unexport(base),
		model:   jen.Qual(opts.modelPkg(t), t.Name),
	}
	if b.q.softDelete == "" {
		b.q.softDelete = gen.DefaultSoftDeleteColumn
	}
	b.lookups()
	if t.ID() != nil {
		b.fetch()
	}
	b.insert()
	if t.ID() != nil {
		b.update()
		b.upsert()
	}
	b.all()
	if t.ID() != nil && len(b.Lookups) > 0 {
		b.fetchWithRelationships()
	}
	return b.Service, nil
}

func (b *builder) rt(name string) *jen.Statement { return jen.Qual(b.opts.RuntimePackage, name) }

func (b *builder) constName(parts ...string) string {
	return b.prefix + strings.Join(parts, "") + "Query"
}

func (b *builder) addQuery(name, sql string) string {
	b.Queries = append(b.Queries, Query{Name: name, SQL: sql})
	return name
}

func (b *builder) add(sig *Signature, block ...jen.Code) {
	b.Contract.Methods = append(b.Contract.Methods, sig)
	b.Implementation.Bodies = append(b.Implementation.Bodies, &Body{Signature: sig, Block: block})
}

func (b *builder) idType() jen.Code {
	path, name := b.Type.ID().GoIdent()
	if path == "" {
		return jen.Id(name)
	}
	return jen.Qual(path, name)
}

func (b *builder) table() jen.Code { return jen.Lit(b.Type.Table()) }

func ctxParam() Param { return Param{Name: "ctx", Type: jen.Qual("context", "Context")} }

// arg returns the argument expression writing column c of row.
func arg(c *gen.Column) jen.Code {
	v := jen.Id("row").Dot(c.GoName)
	if c.Kind == gen.ArrayScalar {
		return jen.Qual(pqPackage, "Array").Call(v)
	}
	return v
}

func args(cols []*gen.Column) []jen.Code {
	out := make([]jen.Code, 0, len(cols)+1)
	for _, c := range cols {
		out = append(out, arg(c))
	}
	return out
}

// =============================================================================
// Methods
// =============================================================================

func (b *builder) fetch() {
	query := b.addQuery(b.constName("Fetch"), b.q.fetch(b.Type))
	b.add(&Signature{
		Name:    "Fetch",
		Doc:     fmt.Sprintf("Fetch returns the %s row with the given id.", b.Type.Table()),
		Params:  []Param{ctxParam(), {Name: "id", Type: b.idType()}},
		Results: []jen.Code{jen.Op("*").Add(b.model), jen.Error()},
	},
		jen.Var().Id("row").Add(b.model),
		jen.If(
			jen.Err().Op(":=").Id("s").Dot("ex").Dot("Get").Call(jen.Id("ctx"), jen.Op("&").Id("row"), jen.Id(query), jen.Id("id")),
			jen.Err().Op("!=").Nil(),
		).Block(
			jen.If(b.rt("IsNoRows").Call(jen.Err())).Block(
				jen.Return(jen.Nil(), jen.Qual(errorsPackage, "NewNotFoundErrorWithID").Call(b.table(), jen.Id("id"))),
			),
			jen.Return(jen.Nil(), jen.Qual(errorsPackage, "NewQueryError").Call(b.table(), jen.Lit("fetch"), jen.Err())),
		),
		jen.Return(jen.Op("&").Id("row"), jen.Nil()),
	)
}

func (b *builder) insert() {
	cols := b.q.insertColumns(b.Type)
	query := b.addQuery(b.constName("Insert"), b.q.insert(b.Type, cols, ""))
	sig := &Signature{
		Name:   "Insert",
		Params: []Param{ctxParam(), {Name: "row", Type: jen.Op("*").Add(b.model)}},
	}
	if b.Type.ID() == nil {
		sig.Doc = fmt.Sprintf("Insert inserts row into %s.", b.Type.Table())
		sig.Results = []jen.Code{jen.Error()}
		b.add(sig,
			jen.If(
				jen.List(jen.Id("_"), jen.Err()).Op(":=").Id("s").Dot("ex").Dot("Exec").Call(append([]jen.Code{jen.Id("ctx"), jen.Id(query)}, args(cols)...)...),
				jen.Err().Op("!=").Nil(),
			).Block(
				jen.Return(jen.Qual(errorsPackage, "NewMutationError").Call(b.table(), jen.Lit("insert"), jen.Err())),
			),
			jen.Return(jen.Nil()),
		)
		return
	}
	sig.Doc = fmt.Sprintf("Insert inserts row into %s and returns its id. The id is also set on row.", b.Type.Table())
	sig.Results = []jen.Code{b.idType(), jen.Error()}
	b.add(sig, b.returning(query, "insert", cols)...)
}

func (b *builder) upsert() {
	target := b.q.conflictTarget(b.Type)
	if len(target) == 0 {
		return
	}
	cols := b.q.insertColumns(b.Type)
	if len(cols) == 0 {
		return
	}
	query := b.addQuery(b.constName("Upsert"), b.q.insert(b.Type, cols, onConflict(target, cols)))
	b.add(&Signature{
		Name:    "Upsert",
		Doc:     fmt.Sprintf("Upsert inserts row into %s or updates the row conflicting on %s, and returns its id.", b.Type.Table(), strings.Join(names(target), ", ")),
		Params:  []Param{ctxParam(), {Name: "row", Type: jen.Op("*").Add(b.model)}},
		Results: []jen.Code{b.idType(), jen.Error()},
	}, b.returning(query, "upsert", cols)...)
}

// returning reads back the id of an insert and sets it on row.
func (b *builder) returning(query, op string, cols []*gen.Column) []jen.Code {
	return []jen.Code{
		jen.Var().Id("id").Add(b.idType()),
		jen.If(
			jen.Err().Op(":=").Id("s").Dot("ex").Dot("Get").Call(append([]jen.Code{jen.Id("ctx"), jen.Op("&").Id("id"), jen.Id(query)}, args(cols)...)...),
			jen.Err().Op("!=").Nil(),
		).Block(
			jen.Return(jen.Id("id"), jen.Qual(errorsPackage, "NewMutationError").Call(b.table(), jen.Lit(op), jen.Err())),
		),
		jen.Id("row").Dot(b.Type.ID().GoName).Op("=").Id("id"),
		jen.Return(jen.Id("id"), jen.Nil()),
	}
}

func (b *builder) update() {
	cols := b.q.updateColumns(b.Type)
	if len(cols) == 0 {
		return
	}
	id := jen.Id("row").Dot(b.Type.ID().GoName)
	query := b.addQuery(b.constName("Update"), b.q.update(b.Type, cols))
	b.add(&Signature{
		Name:    "Update",
		Doc:     fmt.Sprintf("Update writes row to %s. A missing row is a not-found error.", b.Type.Table()),
		Params:  []Param{ctxParam(), {Name: "row", Type: jen.Op("*").Add(b.model)}},
		Results: []jen.Code{jen.Error()},
	},
		jen.List(jen.Id("res"), jen.Err()).Op(":=").Id("s").Dot("ex").Dot("Exec").Call(append(append([]jen.Code{jen.Id("ctx"), jen.Id(query)}, args(cols)...), id)...),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Qual(errorsPackage, "NewMutationError").Call(b.table(), jen.Lit("update"), jen.Err())),
		),
		jen.List(jen.Id("n"), jen.Err()).Op(":=").Id("res").Dot("RowsAffected").Call(),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Qual(errorsPackage, "NewMutationError").Call(b.table(), jen.Lit("update"), jen.Err())),
		),
		jen.If(jen.Id("n").Op("==").Lit(0)).Block(
			jen.Return(jen.Qual(errorsPackage, "NewNotFoundErrorWithID").Call(b.table(), id)),
		),
		jen.Return(jen.Nil()),
	)
}

func (b *builder) all() {
	query := b.addQuery(b.constName("All"), b.q.all(b.Type))
	b.add(&Signature{
		Name:    "All",
		Doc:     fmt.Sprintf("All returns every %s row that is not soft-deleted.", b.Type.Table()),
		Params:  []Param{ctxParam()},
		Results: []jen.Code{jen.Index().Op("*").Add(b.model), jen.Error()},
	},
		jen.Var().Id("rows").Index().Op("*").Add(b.model),
		jen.If(
			jen.Err().Op(":=").Id("s").Dot("ex").Dot("Select").Call(jen.Id("ctx"), jen.Op("&").Id("rows"), jen.Id(query)),
			jen.Err().Op("!=").Nil(),
		).Block(
			jen.Return(jen.Nil(), jen.Qual(errorsPackage, "NewQueryError").Call(b.table(), jen.Lit("all"), jen.Err())),
		),
		jen.Return(jen.Id("rows"), jen.Nil()),
	)
}

func (b *builder) fetchWithRelationships() {
	stmts := []jen.Code{b.rt("NewStatement").Call(jen.Id(b.constName("Fetch")), jen.Id("id"))}
	read := []jen.Code{
		jen.Var().Id("row").Add(b.model),
		jen.If(
			jen.Err().Op(":=").Id("r").Dot("One").Call(jen.Op("&").Id("row")),
			jen.Err().Op("!=").Nil(),
		).Block(
			jen.If(b.rt("IsNoRows").Call(jen.Err())).Block(
				jen.Return(jen.Qual(errorsPackage, "NewNotFoundErrorWithID").Call(b.table(), jen.Id("id"))),
			),
			jen.Return(jen.Err()),
		),
		jen.Id("loaded").Op("=").Add(b.rt("NewLoaded")).Call(jen.Op("&").Id("row")),
	}
	for _, l := range b.Lookups {
		params := []jen.Code{jen.Id(l.Name), jen.Id("id")}
		if l.Kind == LookupAudit {
			params = append(params, jen.Lit(l.Discriminator))
		}
		stmts = append(stmts, b.rt("NewStatement").Call(params...))
		read = append(read, jen.If(
			jen.Err().Op(":=").Add(b.rt("AttachMany")).Types(jen.Qual(b.opts.modelPkg(l.Target), l.Target.Name)).Call(jen.Id("r"), jen.Id("loaded").Dot("Relations")),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Return(jen.Err())))
	}
	read = append(read, jen.Return(jen.Nil()))
	loaded := b.rt("Loaded").Types(b.model)
	b.add(&Signature{
		Name: "FetchWithRelationships",
		Doc: fmt.Sprintf("FetchWithRelationships returns the %s row with the given id and its related rows, read in one batch.",
			b.Type.Table()),
		Params:  []Param{ctxParam(), {Name: "id", Type: b.idType()}},
		Results: []jen.Code{jen.Op("*").Add(loaded), jen.Error()},
	},
		jen.Var().Id("loaded").Op("*").Add(loaded),
		jen.Id("stmts").Op(":=").Index().Add(b.rt("Statement")).ValuesFunc(func(g *jen.Group) {
			for _, s := range stmts {
				g.Line().Add(s)
			}
			g.Line()
		}),
		jen.Err().Op(":=").Id("s").Dot("ex").Dot("Batch").Call(
			jen.Id("ctx"), jen.Id("stmts"),
			jen.Func().Params(jen.Id("r").Add(b.rt("BatchReader"))).Error().Block(read...),
		),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.If(jen.Qual(errorsPackage, "IsNotFound").Call(jen.Err())).Block(
				jen.Return(jen.Nil(), jen.Err()),
			),
			jen.Return(jen.Nil(), jen.Qual(errorsPackage, "NewQueryError").Call(b.table(), jen.Lit("fetch with relationships"), jen.Err())),
		),
		jen.Return(jen.Id("loaded"), jen.Nil()),
	)
}

// =============================================================================
// Relation lookups
// =============================================================================

// lookups builds the relation statements of the table from the resolved
// relations touching it. Relations with a column beyond the cutoff are
// left out.
func (b *builder) lookups() {
	t := b.Type
	if t.ID() == nil {
		return
	}
	for _, rel := range b.g.RelationsOf(t) {
		switch r := rel.(type) {
		case *gen.OneToMany:
			if !b.q.included([]*gen.Column{r.Column, r.Target}) {
				continue
			}
			if r.Many == t {
				b.lookup(&Lookup{Kind: LookupParent, Target: r.One, Name: b.constName(gen.Pascal(r.Column.Name), "Parent")},
					join{table: t, alias: rootAlias, on: on(rootAlias, r.Column.Name, targetAlias, r.Target.Name)})
			}
			if r.One == t {
				b.lookup(&Lookup{Kind: LookupChildren, Target: r.Many, Name: b.constName(r.Many.Name, gen.Pascal(r.Column.Name), "Children")},
					join{table: t, alias: rootAlias, on: on(targetAlias, r.Column.Name, rootAlias, r.Target.Name)})
			}
		case *gen.Bridge:
			other, self := r.Other(t)
			if !b.q.included([]*gen.Column{other.Own, other.Column, self.Own, self.Column}) {
				continue
			}
			b.lookup(&Lookup{Kind: LookupBridge, Target: other.Type, Name: b.constName(r.Table.Name, "Bridge")},
				join{table: r.Table, alias: bridgeAlias, on: on(bridgeAlias, other.Column.Name, targetAlias, other.Own.Name)},
				join{table: t, alias: rootAlias, on: on(bridgeAlias, self.Column.Name, rootAlias, self.Own.Name)},
			)
		case *gen.AuditSet:
			if !b.q.included([]*gen.Column{r.Discriminator, r.TargetID}) {
				continue
			}
			for _, c := range r.Candidates {
				if !b.q.included([]*gen.Column{c.PK}) {
					continue
				}
				l := &Lookup{Kind: LookupAudit, Target: c.Target, Name: b.constName(c.Target.Name, "Audit"), Discriminator: c.Alias}
				disc := r.Discriminator
				b.lookupWhere(l, func(cond *sqlbuilder.Cond) []string {
					return []string{cond.Equal(qualify(rootAlias, disc.Name), nil)}
				}, join{table: t, alias: rootAlias, on: on(rootAlias, r.TargetID.Name, targetAlias, c.PK.Name)})
			}
		}
	}
}

func (b *builder) lookup(l *Lookup, joins ...join) { b.lookupWhere(l, nil, joins...) }

func (b *builder) lookupWhere(l *Lookup, extra func(*sqlbuilder.Cond) []string, joins ...join) {
	if len(b.q.selected(l.Target)) == 0 {
		return
	}
	if _, dup := b.Query(l.Name); dup {
		l.Name = fmt.Sprintf("%s%dQuery", strings.TrimSuffix(l.Name, "Query"), len(b.Lookups))
	}
	l.Query = b.q.lookup(b.Type, l.Target, joins, extra)
	b.addQuery(l.Name, l.Query)
	b.Lookups = append(b.Lookups, l)
}

func isExported(name string) bool {
	return name != "" && unicode.IsUpper([]rune(name)[0]) && !strings.ContainsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// unexport lower-cases the leading upper-case run of name, keeping the
// last letter of an acronym followed by a word: URLCache => urlCache.
func unexport(name string) string {
	r := []rune(name)
	i := 0
	for i < len(r) && unicode.IsUpper(r[i]) {
		i++
	}
	switch {
	case i == 0:
		return name
	case i > 1 && i < len(r) && unicode.IsLower(r[i]):
		i--
	}
	for j := 0; j < i; j++ {
		r[j] = unicode.ToLower(r[j])
	}
	return string(r)
}
