package script

import (
	"fmt"
	"strings"

	"github.com/mangaloom/schemagen/compiler/gen"
)

// maxIdent is the PostgreSQL identifier length limit (NAMEDATALEN - 1).
// Longer names are silently truncated by the server.
const maxIdent = 63

// Issue is one finding of Lint.
type Issue struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates the statement may fail on a populated database.
	Breaking bool
}

func (e *Issue) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// Report holds the results of Lint.
type Report struct {
	Errors   []*Issue
	Warnings []*Issue
}

// HasErrors returns true if there are any errors.
func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any warnings.
func (r *Report) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if any finding is breaking.
func (r *Report) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the report.
func (r *Report) String() string {
	var sb strings.Builder
	write := func(title string, issues []*Issue) {
		if len(issues) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, i := range issues {
			sb.WriteString("  - ")
			sb.WriteString(i.Error())
			if i.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *Report) add(warn bool, i *Issue) {
	if warn {
		r.Warnings = append(r.Warnings, i)
	} else {
		r.Errors = append(r.Errors, i)
	}
}

// LintOption configures Lint.
type LintOption func(*lintConfig)

type lintConfig struct {
	allowNotNullAddition bool
}

// AllowNotNullAddition reports NOT NULL columns added after the baseline
// without a default as warnings instead of errors.
func AllowNotNullAddition() LintOption {
	return func(c *lintConfig) {
		c.allowNotNullAddition = true
	}
}

// Lint checks the scripts that would be rendered at the given version for
// statements PostgreSQL accepts but that misbehave: truncated identifiers,
// foreign keys to columns that do not exist yet, and migrations that fail
// once tables hold data.
//
// Example:
//
//	report := script.Lint(g, 3)
//	if report.HasErrors() {
//	    log.Fatal(report)
//	}
func Lint(g *gen.Graph, version int, opts ...LintOption) *Report {
	cfg := &lintConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	r := &Report{}
	for _, t := range g.Composites() {
		lintIdent(r, t.Table(), "", t.Table())
		if t.Join != nil {
			lintIdent(r, t.Table(), "", t.Join.Function)
		}
	}
	for _, t := range g.Tables() {
		lintTable(r, t, version, cfg)
	}
	return r
}

func lintTable(r *Report, t *gen.Type, version int, cfg *lintConfig) {
	table := t.Table()
	lintIdent(r, table, "", table)
	if len(t.PrimaryKey()) == 0 {
		r.add(true, &Issue{Table: table, Message: "table has no primary key"})
	}
	for _, c := range t.Included(version) {
		lintIdent(r, table, c.Name, c.Name)
		if !c.Baseline() && !c.Nullable() && c.Default == "" && !c.IsArray() {
			r.add(cfg.allowNotNullAddition, &Issue{
				Table:    table,
				Column:   c.Name,
				Message:  fmt.Sprintf("NOT NULL column added in version %d without default value may fail if table has data", c.Version),
				Breaking: true,
			})
		}
		if !c.Baseline() && c.Unique {
			r.add(true, &Issue{
				Table:   table,
				Column:  c.Name,
				Message: "adding UNIQUE constraint may fail if duplicate values exist",
			})
		}
		if c.FK != nil {
			lintForeignKey(r, c, version)
		}
	}
	for _, g := range t.UniqueGroups() {
		included := includedColumns(g.Columns, version)
		if len(included) < 2 {
			continue
		}
		lintIdent(r, table, "", constraintName(table, g.Name))
		if !baseline(included) {
			r.add(true, &Issue{
				Table:   table,
				Message: fmt.Sprintf("adding unique group %q may fail if duplicate values exist", g.Name),
			})
		}
	}
	for _, s := range t.Search {
		lintIdent(r, table, s.Column, s.Column)
	}
	if t.IsAudit() {
		lintIdent(r, table, "", indexName(table, t.Audit.Discriminator, t.Audit.TargetID))
	}
}

func lintForeignKey(r *Report, c *gen.Column, version int) {
	table := c.Owner().Table()
	target := c.FK.Target
	if target == nil {
		r.add(false, &Issue{
			Table:   table,
			Column:  c.Name,
			Message: fmt.Sprintf("foreign key references non-existent table %q", c.FK.Type),
		})
		return
	}
	ref, ok := target.Column(c.FK.Column)
	switch {
	case !ok:
		r.add(false, &Issue{
			Table:   table,
			Column:  c.Name,
			Message: fmt.Sprintf("foreign key references non-existent column %q of %q", c.FK.Column, target.Table()),
		})
	case !ref.IncludedIn(version):
		r.add(false, &Issue{
			Table:   table,
			Column:  c.Name,
			Message: fmt.Sprintf("foreign key references column %q of %q introduced in version %d", ref.Name, target.Table(), ref.Version),
		})
	case !ref.PK && !ref.Unique:
		r.add(false, &Issue{
			Table:   table,
			Column:  c.Name,
			Message: fmt.Sprintf("foreign key references column %q of %q that is neither a primary key nor unique", ref.Name, target.Table()),
		})
	}
}

func lintIdent(r *Report, table, column, name string) {
	if len(name) > maxIdent {
		r.add(false, &Issue{
			Table:   table,
			Column:  column,
			Message: fmt.Sprintf("identifier %q exceeds %d bytes and would be truncated", name, maxIdent),
		})
	}
}
