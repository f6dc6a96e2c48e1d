package datamodels

import (
	"context"
	"time"

	"github.com/sisensehq/go-sisense/internal/cmd/base"
	dm "github.com/sisensehq/go-sisense/pkg/datamodels"
	"github.com/sisensehq/go-sisense/pkg/migration"
)

type Command struct {
	*base.Command

	flagAll          bool
	flagAction       string
	flagNewTitle     string
	flagShares       bool
	flagDependencies base.StringList
	flagConnections  base.KeyValueMap
	flagBatchSize    int
	flagPause        time.Duration
}

func (c *Command) Synopsis() string {
	return "Migrate data models between environments"
}

func (c *Command) Help() string {
	return `Usage: sisense-migrate datamodels [options] [id or title ...]

  Exports the referenced data models from the source environment with the
  selected dependencies and imports them into the target one by one.
  Arguments that look like data model IDs (UUIDs) are resolved by ID
  first, everything else by exact title.

Options:

  -source=<path>     Source environment config file (default "source.yaml").
  -target=<path>     Target environment config file (default "target.yaml").
  -all               Migrate every data model, in batches.
  -action=<name>     Collision handling: skip (default), overwrite, duplicate.
  -new-title=<name>  Title for duplicates (default "<title> (Duplicate)").
  -shares            Also migrate data model permissions.
  -deps=<list>       Dependency kinds to include: dataSecurity, formulas,
                     hierarchies, perspectives, or all (default all).
  -connection=<k=v>  Map a provider to a target connection oid, repeatable
                     (e.g. -connection=Databricks=5a3e...).
  -batch-size=<n>    Models per batch with -all (default 10).
  -pause=<duration>  Pause between batches with -all (default 60s).
  -out=<path>        Also write per-model outcomes to a CSV file.`
}

func (c *Command) Run(args []string) int {
	fs := c.FlagSet("datamodels")
	fs.BoolVar(&c.flagAll, "all", false, "Migrate every data model")
	fs.StringVar(&c.flagAction, "action", "", "skip, overwrite, or duplicate")
	fs.StringVar(&c.flagNewTitle, "new-title", "", "Title for duplicates")
	fs.BoolVar(&c.flagShares, "shares", false, "Also migrate permissions")
	fs.Var(&c.flagDependencies, "deps", "Dependency kinds to include")
	fs.Var(&c.flagConnections, "connection", "provider=connection-oid mapping")
	fs.IntVar(&c.flagBatchSize, "batch-size", migration.DefaultBatchSize, "Models per batch")
	fs.DurationVar(&c.flagPause, "pause", migration.DefaultBatchPause, "Pause between batches")
	if err := fs.Parse(args); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	refs := referencesFor(fs.Args())
	if !c.flagAll && len(refs) == 0 {
		c.UI.Error("either data model references or -all is required")
		return 1
	}
	if c.flagAll && len(refs) > 0 {
		c.UI.Error("data model references and -all are mutually exclusive")
		return 1
	}

	opts := migration.DatamodelOptions{
		Connections:  migration.ConnectionMap(c.flagConnections),
		Dependencies: c.flagDependencies,
		Shares:       c.flagShares,
		Action:       migration.Action(c.flagAction),
		NewTitle:     c.flagNewTitle,
	}

	m, err := c.Migrator()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	var summary *migration.Summary
	if c.flagAll {
		summary, err = m.MigrateAllDatamodels(ctx, opts, migration.BatchOptions{
			BatchSize: c.flagBatchSize,
			Pause:     c.flagPause,
		})
	} else {
		summary, err = m.MigrateDatamodels(ctx, refs, opts)
	}
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	return c.PrintSummary(summary)
}

func referencesFor(args []string) []migration.Reference {
	refs := make([]migration.Reference, len(args))
	for i, arg := range args {
		if dm.IsOID(arg) {
			refs[i] = migration.ByID(arg)
		} else {
			refs[i] = migration.ByTitle(arg)
		}
	}
	return refs
}
