package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncplot7go/ncengine/internal/domain"
)

func TestMemoryStore_SaveAndGetRun(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	run := Run{
		ID:          "run-1",
		CanalNr:     "1",
		MachineName: "FANUC_GENERIC",
		Program:     "G01 X1",
		Plot:        domain.CanalPlot{CanalNr: "1", Plot: []domain.PlotStep{{X: 1}}},
		CreatedAt:   time.Now(),
	}
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.MachineName, got.MachineName)
	assert.Equal(t, run.Plot, got.Plot)
}

func TestMemoryStore_GetRunMissingReturnsError(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetRun(context.Background(), "nope")
	assert.Error(t, err)
}

func TestMemoryStore_ListRunsFiltersByCanal(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.SaveRun(ctx, Run{ID: "a", CanalNr: "1"}))
	require.NoError(t, s.SaveRun(ctx, Run{ID: "b", CanalNr: "2"}))
	require.NoError(t, s.SaveRun(ctx, Run{ID: "c", CanalNr: "1"}))

	onlyCanal1, err := s.ListRuns(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, onlyCanal1, 2)

	all, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
