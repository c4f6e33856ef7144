package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/mocks"
	"github.com/ersonp/lore-sync/internal/domain/services"
)

// pipeline wires the services over in-memory stores.
type pipeline struct {
	oracle  *mocks.Oracle
	log     *mocks.ChangeLogStore
	status  *mocks.StatusStore
	content *mocks.ContentStore

	types        *services.EntityTypeService
	changes      *services.ChangeLogService
	statuses     *services.StatusService
	orchestrator *services.Orchestrator
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	p := &pipeline{
		oracle: &mocks.Oracle{
			Default: entities.FindingResult(entities.OracleFinding{Confidence: 0.95, HasPhoto: true}, 1),
		},
		log:     mocks.NewChangeLogStore(),
		status:  mocks.NewStatusStore(),
		content: mocks.NewContentStore(),
	}
	p.types = services.NewEntityTypeService(mocks.NewEntityTypeStore())
	require.NoError(t, p.types.LoadDefaults(context.Background()))
	p.changes = services.NewChangeLogService(p.log, p.content, nil)
	p.statuses = services.NewStatusService(p.status)
	p.orchestrator = services.NewOrchestrator(
		services.NewValidator(services.DefaultPolicy()),
		p.oracle,
		p.changes,
		p.statuses,
		p.content,
	)
	return p
}
