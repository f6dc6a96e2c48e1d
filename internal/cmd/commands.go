package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/sisensehq/go-sisense/internal/cmd/base"
	"github.com/sisensehq/go-sisense/internal/cmd/commands/dashboards"
	"github.com/sisensehq/go-sisense/internal/cmd/commands/datamodels"
	"github.com/sisensehq/go-sisense/internal/cmd/commands/groups"
	"github.com/sisensehq/go-sisense/internal/cmd/commands/shares"
	"github.com/sisensehq/go-sisense/internal/cmd/commands/users"
	"github.com/sisensehq/go-sisense/internal/cmd/commands/version"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	baseCommand := func(name string) *base.Command {
		return &base.Command{
			UI:  ui,
			Log: log.Named(name),
		}
	}

	Commands = map[string]cli.CommandFactory{
		"groups": func() (cli.Command, error) {
			return &groups.Command{Command: baseCommand("groups")}, nil
		},
		"users": func() (cli.Command, error) {
			return &users.Command{Command: baseCommand("users")}, nil
		},
		"dashboards": func() (cli.Command, error) {
			return &dashboards.Command{Command: baseCommand("dashboards")}, nil
		},
		"datamodels": func() (cli.Command, error) {
			return &datamodels.Command{Command: baseCommand("datamodels")}, nil
		},
		"shares": func() (cli.Command, error) {
			return &shares.Command{Command: baseCommand("shares")}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: baseCommand("version")}, nil
		},
	}
}
