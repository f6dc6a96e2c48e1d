package dashboards

import (
	"context"
	"time"

	"github.com/sisensehq/go-sisense/internal/cmd/base"
	dash "github.com/sisensehq/go-sisense/pkg/dashboards"
	"github.com/sisensehq/go-sisense/pkg/migration"
)

type Command struct {
	*base.Command

	flagAll       bool
	flagAction    string
	flagRepublish bool
	flagShares    bool
	flagOwnership bool
	flagBatchSize int
	flagPause     time.Duration
}

func (c *Command) Synopsis() string {
	return "Migrate dashboards between environments"
}

func (c *Command) Help() string {
	return `Usage: sisense-migrate dashboards [options] [id or title ...]

  Exports the referenced dashboards from the source environment and
  imports them into the target through the bulk endpoint. Arguments that
  look like dashboard IDs (24 hex characters) are resolved by ID first,
  everything else by exact title.

Options:

  -source=<path>     Source environment config file (default "source.yaml").
  -target=<path>     Target environment config file (default "target.yaml").
  -all               Migrate every root dashboard, in batches.
  -action=<name>     Collision handling: skip (default), overwrite, duplicate.
  -republish         Republish dashboards after import.
  -shares            Also migrate dashboard shares (skip/default action only).
  -ownership         Reassign ownership to the source owner's counterpart.
                     Requires -shares.
  -batch-size=<n>    Dashboards per batch with -all (default 10).
  -pause=<duration>  Pause between batches with -all (default 60s).
  -out=<path>        Also write per-dashboard outcomes to a CSV file.`
}

func (c *Command) Run(args []string) int {
	fs := c.FlagSet("dashboards")
	fs.BoolVar(&c.flagAll, "all", false, "Migrate every root dashboard")
	fs.StringVar(&c.flagAction, "action", "", "skip, overwrite, or duplicate")
	fs.BoolVar(&c.flagRepublish, "republish", false, "Republish after import")
	fs.BoolVar(&c.flagShares, "shares", false, "Also migrate shares")
	fs.BoolVar(&c.flagOwnership, "ownership", false, "Also reassign ownership")
	fs.IntVar(&c.flagBatchSize, "batch-size", migration.DefaultBatchSize, "Dashboards per batch")
	fs.DurationVar(&c.flagPause, "pause", migration.DefaultBatchPause, "Pause between batches")
	if err := fs.Parse(args); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	refs := referencesFor(fs.Args())
	if !c.flagAll && len(refs) == 0 {
		c.UI.Error("either dashboard references or -all is required")
		return 1
	}
	if c.flagAll && len(refs) > 0 {
		c.UI.Error("dashboard references and -all are mutually exclusive")
		return 1
	}

	opts := migration.DashboardOptions{
		Action:          migration.Action(c.flagAction),
		Republish:       c.flagRepublish,
		MigrateShares:   c.flagShares,
		ChangeOwnership: c.flagOwnership,
	}

	m, err := c.Migrator()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	var summary *migration.Summary
	if c.flagAll {
		summary, err = m.MigrateAllDashboards(ctx, opts, migration.BatchOptions{
			BatchSize: c.flagBatchSize,
			Pause:     c.flagPause,
		})
	} else {
		summary, err = m.MigrateDashboards(ctx, refs, opts)
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
		if dash.IsOID(arg) {
			refs[i] = migration.ByID(arg)
		} else {
			refs[i] = migration.ByTitle(arg)
		}
	}
	return refs
}
