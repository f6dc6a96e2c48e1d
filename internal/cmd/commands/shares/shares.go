package shares

import (
	"context"

	"github.com/sisensehq/go-sisense/internal/cmd/base"
)

type Command struct {
	*base.Command

	flagSourceIDs base.StringList
	flagTargetIDs base.StringList
	flagOwnership bool
}

func (c *Command) Synopsis() string {
	return "Migrate dashboard shares between environments"
}

func (c *Command) Help() string {
	return `Usage: sisense-migrate shares -source-ids=<ids> -target-ids=<ids> [options]

  Migrates share lists for dashboard pairs. The two ID lists pair
  positionally: the first source dashboard's shares are applied to the
  first target dashboard, and so on. The lists must be the same length.

Options:

  -source=<path>      Source environment config file (default "source.yaml").
  -target=<path>      Target environment config file (default "target.yaml").
  -source-ids=<list>  Comma-separated source dashboard IDs.
  -target-ids=<list>  Comma-separated target dashboard IDs.
  -ownership          Also reassign ownership to the source owner's
                      counterpart.`
}

func (c *Command) Run(args []string) int {
	fs := c.FlagSet("shares")
	fs.Var(&c.flagSourceIDs, "source-ids", "Source dashboard IDs")
	fs.Var(&c.flagTargetIDs, "target-ids", "Target dashboard IDs")
	fs.BoolVar(&c.flagOwnership, "ownership", false, "Also reassign ownership")
	if err := fs.Parse(args); err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	m, err := c.Migrator()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	summary, err := m.MigrateDashboardShares(context.Background(),
		c.flagSourceIDs, c.flagTargetIDs, c.flagOwnership)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	return c.PrintShareSummary(summary)
}
