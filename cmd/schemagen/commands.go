package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mangaloom/schemagen/compiler/gen"
	"github.com/mangaloom/schemagen/compiler/gen/script"
	"github.com/mangaloom/schemagen/compiler/gen/sql"
)

func (a *app) scriptsCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "Write the SQL scripts, drop script and manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("target") {
				a.cfg.Scripts.Target = target
			}
			return a.run(cmd, "scripts", func(g *gen.Graph) error {
				return script.Generate(g, a.cfg.scriptOptions())
			})
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "output directory of the scripts")
	cmd.Flags().BoolVarP(&a.watch, "watch", "w", false, "regenerate when a schema file changes")
	return cmd
}

func (a *app) accessCmd() *cobra.Command {
	var target, pkg string
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Write the data-access services of every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("target") {
				a.cfg.Access.Target = target
			}
			if cmd.Flags().Changed("package") {
				a.cfg.Access.Package = pkg
			}
			return a.run(cmd, "access", func(g *gen.Graph) error {
				return sql.Generate(g, a.cfg.accessOptions())
			})
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "output directory of the generated package")
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "import path of the generated package")
	cmd.Flags().BoolVarP(&a.watch, "watch", "w", false, "regenerate when a schema file changes")
	return cmd
}

// run resolves the graph and runs gen, once or on every schema change.
func (a *app) run(cmd *cobra.Command, name string, gen func(*gen.Graph) error) error {
	once := func() error {
		g, err := a.graph()
		if err != nil {
			return err
		}
		if err := gen(g); err != nil {
			return err
		}
		a.logger.Info("generation completed", zap.String("command", name), zap.Int("entities", len(g.Nodes)))
		return nil
	}
	if !a.watch {
		return once()
	}
	if err := once(); err != nil {
		a.logger.Error("generation failed", zap.String("command", name), zap.Error(err))
	}
	return a.watchSchemas(cmd.Context(), once)
}

func (a *app) graphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the creation order and the resolved relations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			g, err := a.graph()
			if err != nil {
				return err
			}
			a.printOrder(g)
			fmt.Fprintln(a.out)
			a.printRelations(g)
			return nil
		},
	}
}

func (a *app) printOrder(g *gen.Graph) {
	table := tablewriter.NewWriter(a.out)
	table.SetHeader([]string{"#", "Entity", "Kind", "SQL name", "Columns", "Requires"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for i, t := range g.Order {
		cols := len(t.Included(a.cfg.Version))
		table.Append([]string{
			strconv.Itoa(i + 1),
			t.Name,
			t.Kind.String(),
			t.Table(),
			strconv.Itoa(cols),
			strings.Join(t.Requires, ", "),
		})
	}
	table.Render()
}

func (a *app) printRelations(g *gen.Graph) {
	table := tablewriter.NewWriter(a.out)
	table.SetHeader([]string{"Kind", "From", "To", "Through"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, r := range g.Relations {
		switch r := r.(type) {
		case *gen.OneToMany:
			table.Append([]string{r.Kind(), r.Many.Name, r.One.Name, r.Column.String()})
		case *gen.Bridge:
			table.Append([]string{r.Kind(), r.Parent.Type.Name, r.Child.Type.Name, r.Table.Name})
		case *gen.AuditSet:
			targets := make([]string, len(r.Candidates))
			for i, c := range r.Candidates {
				targets[i] = c.Target.Name
			}
			table.Append([]string{r.Kind(), r.Audit.Name, strings.Join(targets, ", "), r.TargetID.String()})
		}
	}
	table.Render()
}

func (a *app) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [dir]",
		Short: "Check the scripts against their atlas.sum files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := a.cfg.Scripts.Target
			if len(args) > 0 {
				dir = args[0]
			}
			if err := script.Verify(dir, a.cfg.scriptOptions()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: scripts match their checksums\n", dir)
			return nil
		},
	}
}

// errLint is returned when the lint report holds errors.
var errLint = errors.New("schema lint failed")

func (a *app) lintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Report schema changes that cannot be applied safely",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("allow-not-null") {
				a.cfg.Lint.AllowNotNullAddition, _ = cmd.Flags().GetBool("allow-not-null")
			}
			g, err := a.graph()
			if err != nil {
				return err
			}
			var opts []script.LintOption
			if a.cfg.Lint.AllowNotNullAddition {
				opts = append(opts, script.AllowNotNullAddition())
			}
			report := script.Lint(g, a.cfg.Version, opts...)
			fmt.Fprintln(a.out, report.String())
			if report.HasErrors() {
				return errLint
			}
			return nil
		},
	}
	cmd.Flags().Bool("allow-not-null", false, "report NOT NULL additions without a default as warnings")
	return cmd
}
