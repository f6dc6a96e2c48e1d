// Package migration moves analytics assets between two Sisense
// environments: groups, users, dashboards, dashboard shares, and data
// models. Each operation resolves references against the source, applies
// the conflict action against the target, and returns a Summary that
// accounts for every requested entity.
package migration

import (
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/sisensehq/go-sisense/pkg/access"
	"github.com/sisensehq/go-sisense/pkg/dashboards"
	"github.com/sisensehq/go-sisense/pkg/datamodels"
	"github.com/sisensehq/go-sisense/pkg/sisense"
)

// Migrator runs migrations from a source environment to a target
// environment. It holds no cross-call state: identity maps and resolutions
// are rebuilt on every operation so a rename or deletion between calls is
// always observed.
type Migrator struct {
	source *sisense.Client
	target *sisense.Client

	sourceAccess *access.Service
	targetAccess *access.Service

	sourceDashboards *dashboards.Service
	targetDashboards *dashboards.Service

	sourceModels *datamodels.Service
	targetModels *datamodels.Service

	logger hclog.Logger

	// sleep is swapped out in tests.
	sleep sleepFunc

	// newRunID is swapped out in tests for stable run IDs.
	newRunID func() string
}

// New creates a Migrator between source and target.
func New(source, target *sisense.Client, logger hclog.Logger) *Migrator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("migration")

	return &Migrator{
		source:           source,
		target:           target,
		sourceAccess:     access.NewService(source, logger.Named("source")),
		targetAccess:     access.NewService(target, logger.Named("target")),
		sourceDashboards: dashboards.NewService(source, logger.Named("source")),
		targetDashboards: dashboards.NewService(target, logger.Named("target")),
		sourceModels:     datamodels.NewService(source, logger.Named("source")),
		targetModels:     datamodels.NewService(target, logger.Named("target")),
		logger:           logger,
		sleep:            defaultSleep,
		newRunID:         func() string { return uuid.New().String() },
	}
}

func (m *Migrator) newSummary() *Summary {
	return &Summary{RunID: m.newRunID()}
}

func (m *Migrator) newShareSummary() *ShareSummary {
	return &ShareSummary{RunID: m.newRunID()}
}
