// Package storage persists executed CanalPlot runs for history/replay,
// adapted from the teacher's internal/infrastructure/storage (memory.go,
// bun_store.go): the CRUD-map MemoryStore and the bun-backed Postgres
// store both survive, retargeted from {Workflow,Execution,Node,Edge}
// records onto this engine's one domain record, a finished canal run.
package storage

import (
	"context"
	"time"

	"github.com/ncplot7go/ncengine/internal/domain"
)

// Run is one persisted canal execution: its input program, the machine it
// targeted, and the CanalPlot it produced.
type Run struct {
	ID          string
	CanalNr     string
	MachineName string
	Program     string
	Plot        domain.CanalPlot
	CreatedAt   time.Time
}

// Store is the history/replay persistence contract. Both MemoryStore and
// BunStore implement it.
type Store interface {
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, canalNr string) ([]Run, error)
}
