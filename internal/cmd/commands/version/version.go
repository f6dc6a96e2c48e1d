package version

import (
	"github.com/sisensehq/go-sisense/internal/cmd/base"
	"github.com/sisensehq/go-sisense/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: sisense-migrate version

  Prints the CLI version.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output("sisense-migrate " + version.Version)
	return 0
}
