package groups

import (
	"context"

	"github.com/sisensehq/go-sisense/internal/cmd/base"
	"github.com/sisensehq/go-sisense/pkg/migration"
)

type Command struct {
	*base.Command

	flagAll bool
}

func (c *Command) Synopsis() string {
	return "Migrate groups between environments"
}

func (c *Command) Help() string {
	return `Usage: sisense-migrate groups [options] [group name ...]

  Migrates the named groups from the source environment to the target
  through the bulk creation endpoint. Groups already present in the target
  are skipped.

Options:

  -source=<path>  Source environment config file (default "source.yaml").
  -target=<path>  Target environment config file (default "target.yaml").
  -all            Migrate every group except the reserved system groups.
  -out=<path>     Also write per-group outcomes to a CSV file.`
}

func (c *Command) Run(args []string) int {
	fs := c.FlagSet("groups")
	fs.BoolVar(&c.flagAll, "all", false, "Migrate every non-reserved group")
	if err := fs.Parse(args); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	names := fs.Args()
	if !c.flagAll && len(names) == 0 {
		c.UI.Error("either group names or -all is required")
		return 1
	}
	if c.flagAll && len(names) > 0 {
		c.UI.Error("group names and -all are mutually exclusive")
		return 1
	}

	m, err := c.Migrator()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	var summary *migration.Summary
	if c.flagAll {
		summary, err = m.MigrateAllGroups(ctx)
	} else {
		summary, err = m.MigrateGroups(ctx, names)
	}
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	return c.PrintSummary(summary)
}
