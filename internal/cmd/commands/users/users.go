package users

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
	return "Migrate users between environments"
}

func (c *Command) Help() string {
	return `Usage: sisense-migrate users [options] [email ...]

  Migrates the given users, identified by email, from the source
  environment to the target. Role and group references are rewritten to
  target IDs; users already present in the target are skipped.

Options:

  -source=<path>  Source environment config file (default "source.yaml").
  -target=<path>  Target environment config file (default "target.yaml").
  -all            Migrate every user except sysadmins.
  -out=<path>     Also write per-user outcomes to a CSV file.`
}

func (c *Command) Run(args []string) int {
	fs := c.FlagSet("users")
	fs.BoolVar(&c.flagAll, "all", false, "Migrate every non-sysadmin user")
	if err := fs.Parse(args); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	emails := fs.Args()
	if !c.flagAll && len(emails) == 0 {
		c.UI.Error("either user emails or -all is required")
		return 1
	}
	if c.flagAll && len(emails) > 0 {
		c.UI.Error("user emails and -all are mutually exclusive")
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
		summary, err = m.MigrateAllUsers(ctx)
	} else {
		summary, err = m.MigrateUsers(ctx, emails)
	}
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	return c.PrintSummary(summary)
}
