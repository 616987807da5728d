package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ncplot7go/ncengine/internal/domain"
)

// BunStore is a Postgres-backed Store, grounded on storage/bun_store.go's
// sql.OpenDB(pgdriver)+bun.NewDB(pgdialect) wiring. CanalPlot is stored as
// a compact msgpack blob rather than a column-per-field model, since its
// shape (a slice of x/y/z/t steps keyed by canal) has no natural relational
// decomposition worth the write amplification.
type BunStore struct {
	db *bun.DB
}

// NewBunStore opens a lazy Postgres connection pool for dsn.
func NewBunStore(dsn string) *BunStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &BunStore{db: bun.NewDB(sqldb, pgdialect.New())}
}

// runModel is BunStore's single table row.
type runModel struct {
	bun.BaseModel `bun:"table:canal_runs,alias:r"`

	ID          string    `bun:"id,pk"`
	CanalNr     string    `bun:"canal_nr"`
	MachineName string    `bun:"machine_name"`
	Program     string    `bun:"program"`
	PlotBlob    []byte    `bun:"plot_blob"`
	CreatedAt   time.Time `bun:"created_at"`
}

// InitSchema creates the canal_runs table if it doesn't already exist.
func (s *BunStore) InitSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*runModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// SaveRun implements Store.
func (s *BunStore) SaveRun(ctx context.Context, run Run) error {
	blob, err := msgpack.Marshal(run.Plot)
	if err != nil {
		return fmt.Errorf("encode canal plot: %w", err)
	}
	model := &runModel{
		ID:          run.ID,
		CanalNr:     run.CanalNr,
		MachineName: run.MachineName,
		Program:     run.Program,
		PlotBlob:    blob,
		CreatedAt:   run.CreatedAt,
	}
	_, err = s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

// GetRun implements Store.
func (s *BunStore) GetRun(ctx context.Context, id string) (Run, error) {
	model := new(runModel)
	if err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx); err != nil {
		return Run{}, err
	}
	return toRun(model)
}

// ListRuns implements Store.
func (s *BunStore) ListRuns(ctx context.Context, canalNr string) ([]Run, error) {
	var models []*runModel
	q := s.db.NewSelect().Model(&models)
	if canalNr != "" {
		q = q.Where("canal_nr = ?", canalNr)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]Run, 0, len(models))
	for _, m := range models {
		run, err := toRun(m)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

func toRun(m *runModel) (Run, error) {
	var plot domain.CanalPlot
	if err := msgpack.Unmarshal(m.PlotBlob, &plot); err != nil {
		return Run{}, fmt.Errorf("decode canal plot: %w", err)
	}
	return Run{
		ID:          m.ID,
		CanalNr:     m.CanalNr,
		MachineName: m.MachineName,
		Program:     m.Program,
		Plot:        plot,
		CreatedAt:   m.CreatedAt,
	}, nil
}
