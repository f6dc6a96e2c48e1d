// Package base carries the wiring shared by every CLI command: the
// source/target environment flags, migrator construction, and summary
// printing.
package base

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/sisensehq/go-sisense/pkg/export"
	"github.com/sisensehq/go-sisense/pkg/migration"
	"github.com/sisensehq/go-sisense/pkg/sisense"
)

// Command is embedded by every CLI command.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger

	// FS defaults to the OS filesystem; tests swap in a memory fs.
	FS afero.Fs

	flagSourceConfig string
	flagTargetConfig string
	flagOut          string
}

// FlagSet returns a flag set preloaded with the shared connection flags.
func (c *Command) FlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&c.flagSourceConfig, "source", "source.yaml",
		"Path to the source environment config file")
	fs.StringVar(&c.flagTargetConfig, "target", "target.yaml",
		"Path to the target environment config file")
	fs.StringVar(&c.flagOut, "out", "",
		"Write per-entity outcomes to a CSV file")
	return fs
}

func (c *Command) fs() afero.Fs {
	if c.FS == nil {
		return afero.NewOsFs()
	}
	return c.FS
}

// Migrator builds a Migrator from the configured source and target files.
func (c *Command) Migrator() (*migration.Migrator, error) {
	fs := c.fs()

	sourceCfg, err := sisense.LoadConfig(fs, c.flagSourceConfig)
	if err != nil {
		return nil, fmt.Errorf("source environment: %w", err)
	}
	targetCfg, err := sisense.LoadConfig(fs, c.flagTargetConfig)
	if err != nil {
		return nil, fmt.Errorf("target environment: %w", err)
	}

	source, err := sisense.NewClient(sourceCfg, c.Log.Named("source"))
	if err != nil {
		return nil, err
	}
	target, err := sisense.NewClient(targetCfg, c.Log.Named("target"))
	if err != nil {
		return nil, err
	}
	return migration.New(source, target, c.Log), nil
}

// PrintSummary writes a migration summary to the UI and returns the exit
// code: 1 when any entity failed, 0 otherwise.
func (c *Command) PrintSummary(s *migration.Summary) int {
	c.UI.Output(fmt.Sprintf("run %s: %d succeeded, %d skipped, %d failed",
		s.RunID, len(s.Succeeded), len(s.Skipped), len(s.Failed)))

	for _, o := range s.Succeeded {
		c.UI.Output("  ok    " + outcomeLabel(o))
	}
	for _, o := range s.Skipped {
		c.UI.Output(fmt.Sprintf("  skip  %s: %s", outcomeLabel(o), o.Reason))
	}
	for _, o := range s.Failed {
		c.UI.Error(fmt.Sprintf("  fail  %s: %s", outcomeLabel(o), o.Reason))
	}
	if s.SharesAdded > 0 || s.SharesFailed > 0 {
		c.UI.Output(fmt.Sprintf("shares: %d added, %d failed",
			s.SharesAdded, s.SharesFailed))
	}

	if c.flagOut != "" {
		if err := c.writeOutcomes(s); err != nil {
			c.UI.Error(fmt.Sprintf("writing %s: %v", c.flagOut, err))
			return 1
		}
		c.UI.Output("wrote " + c.flagOut)
	}

	if len(s.Failed) > 0 {
		return 1
	}
	return 0
}

func (c *Command) writeOutcomes(s *migration.Summary) error {
	var rows []map[string]any
	appendRows := func(outcomes []migration.Outcome) {
		for _, o := range outcomes {
			rows = append(rows, map[string]any{
				"runId":  s.RunID,
				"ref":    o.Ref,
				"id":     o.ID,
				"title":  o.Title,
				"status": string(o.Status),
				"reason": o.Reason,
			})
		}
	}
	appendRows(s.Succeeded)
	appendRows(s.Skipped)
	appendRows(s.Failed)
	if len(rows) == 0 {
		return nil
	}
	return export.WriteCSV(c.fs(), c.flagOut, rows)
}

// PrintShareSummary writes a share migration summary to the UI.
func (c *Command) PrintShareSummary(s *migration.ShareSummary) int {
	c.UI.Output(fmt.Sprintf("run %s: %d dashboards, %d shares added, %d failed",
		s.RunID, len(s.Pairs), s.SharesAdded, s.SharesFailed))

	failed := 0
	for _, p := range s.Pairs {
		switch p.Status {
		case migration.StatusFailed:
			failed++
			c.UI.Error(fmt.Sprintf("  fail  %s -> %s: %s", p.SourceID, p.TargetID, p.Reason))
		case migration.StatusSkipped:
			c.UI.Output(fmt.Sprintf("  skip  %s -> %s: %s", p.SourceID, p.TargetID, p.Reason))
		default:
			c.UI.Output(fmt.Sprintf("  ok    %s -> %s (+%d)", p.SourceID, p.TargetID, p.SharesAdded))
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}

func outcomeLabel(o migration.Outcome) string {
	if o.Title != "" && o.Title != o.Ref {
		return fmt.Sprintf("%s (%s)", o.Title, o.Ref)
	}
	return o.Ref
}

// StringList is a repeatable or comma-separated string flag.
type StringList []string

func (l *StringList) String() string { return strings.Join(*l, ",") }

func (l *StringList) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*l = append(*l, v)
		}
	}
	return nil
}

// KeyValueMap is a repeatable key=value flag.
type KeyValueMap map[string]string

func (m *KeyValueMap) String() string {
	var pairs []string
	for k, v := range *m {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (m *KeyValueMap) Set(value string) error {
	if *m == nil {
		*m = make(map[string]string)
	}
	key, val, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	(*m)[strings.TrimSpace(key)] = strings.TrimSpace(val)
	return nil
}
