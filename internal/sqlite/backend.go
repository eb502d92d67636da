package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/golang/geo/r3"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/platforms/internal/grid"
	"github.com/mesh-intelligence/platforms/pkg/types"
)

// Backend lifecycle errors.
var (
	ErrAlreadyAttached = errors.New("grid backend is already attached")
	ErrDetached        = errors.New("grid backend is detached")
)

// memoryDSN opens a private in-memory database. The pool is limited to one
// connection so every statement sees the same database.
const memoryDSN = ":memory:"

// CellRecord is one row of the cell flag table.
type CellRecord struct {
	Cell  types.Cell     `json:"cell"`
	Flag  types.CellFlag `json:"flag"`
	Owner string         `json:"owner"`
	Refs  int            `json:"refs"`
}

var _ types.GridIndex = (*Backend)(nil)

// Backend implements types.GridIndex on SQLite. GridIndex methods cannot
// return errors, so SQL failures are logged and the call degrades to an
// empty result.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	lattice  grid.Lattice
	db       *sql.DB
	logger   *slog.Logger
}

// NewBackend creates a new SQLite grid backend.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{
		logger: slog.Default().With(slog.String("component", "sqlite-grid")),
	}
}

// WithLogger replaces the backend logger.
func (b *Backend) WithLogger(l *slog.Logger) *Backend {
	if l != nil {
		b.logger = l.With(slog.String("component", "sqlite-grid"))
	}
	return b
}

// Attach validates config, opens the in-memory database and creates the
// schema. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", memoryDSN)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("create index: %w", err)
		}
	}

	b.db = db
	b.lattice = grid.NewLattice(config)
	b.attached = true
	return nil
}

// Detach closes the database. Detach is idempotent; all cell flags are
// discarded.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// CellSize returns the edge length of one cell.
func (b *Backend) CellSize() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lattice.CellSize()
}

// CellOf returns the cell containing p.
func (b *Backend) CellOf(p r3.Vector) types.Cell {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lattice.CellOf(p)
}

// NeighborCells returns the neighbors of c.
func (b *Backend) NeighborCells(c types.Cell) []types.Cell {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lattice.NeighborCells(c)
}

func singleFlag(f types.CellFlag) bool {
	for _, known := range types.AllFlags {
		if f == known {
			return true
		}
	}
	return false
}

// FlagsOf returns the flags present on c.
func (b *Backend) FlagsOf(c types.Cell) types.CellFlags {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0
	}
	rows, err := b.db.Query(sqlFlagsOf, c.X, c.Z)
	if err != nil {
		b.logger.Warn("flags query failed", slog.Any("cell", c), slog.String("error", err.Error()))
		return 0
	}
	defer rows.Close()

	var out types.CellFlags
	for rows.Next() {
		var f int
		if err := rows.Scan(&f); err != nil {
			b.logger.Warn("flags scan failed", slog.Any("cell", c), slog.String("error", err.Error()))
			return 0
		}
		out = out.With(types.CellFlag(f))
	}
	return out
}

// Owners returns the sorted owners of f on c.
func (b *Backend) Owners(c types.Cell, f types.CellFlag) []string {
	if !singleFlag(f) {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil
	}
	rows, err := b.db.Query(sqlOwners, c.X, c.Z, int(f))
	if err != nil {
		b.logger.Warn("owners query failed", slog.Any("cell", c), slog.String("error", err.Error()))
		return nil
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			b.logger.Warn("owners scan failed", slog.Any("cell", c), slog.String("error", err.Error()))
			return nil
		}
		out = append(out, owner)
	}
	return out
}

// SetFlag adds one reference of owner on f at c.
func (b *Backend) SetFlag(c types.Cell, f types.CellFlag, owner string) {
	if !singleFlag(f) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return
	}
	if _, err := b.db.Exec(sqlUpsertFlag, c.X, c.Z, int(f), owner); err != nil {
		b.logger.Warn("set flag failed",
			slog.Any("cell", c),
			slog.String("flag", f.String()),
			slog.String("owner", owner),
			slog.String("error", err.Error()))
	}
}

// ClearFlag drops one reference of owner on f at c.
func (b *Backend) ClearFlag(c types.Cell, f types.CellFlag, owner string) {
	if !singleFlag(f) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return
	}
	if err := b.releaseLocked(c, f, owner); err != nil {
		b.logger.Warn("clear flag failed",
			slog.Any("cell", c),
			slog.String("flag", f.String()),
			slog.String("owner", owner),
			slog.String("error", err.Error()))
	}
}

// releaseLocked decrements and purges in one transaction.
// The caller must hold b.mu write lock.
func (b *Backend) releaseLocked(c types.Cell, f types.CellFlag, owner string) error {
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(sqlReleaseFlag, c.X, c.Z, int(f), owner); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(sqlPurgeFlag, c.X, c.Z, int(f), owner); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Cells returns every flag record, ordered by cell.
func (b *Backend) Cells() ([]CellRecord, error) {
	return b.query(sqlAllCells)
}

// OwnerCells returns the flag records set by owner.
func (b *Backend) OwnerCells(owner string) ([]CellRecord, error) {
	return b.query(sqlOwnerCells, owner)
}

func (b *Backend) query(stmt string, args ...any) ([]CellRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, ErrDetached
	}
	rows, err := b.db.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	var out []CellRecord
	for rows.Next() {
		var (
			rec  CellRecord
			flag int
		)
		if err := rows.Scan(&rec.Cell.X, &rec.Cell.Z, &flag, &rec.Owner, &rec.Refs); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		rec.Flag = types.CellFlag(flag)
		out = append(out, rec)
	}
	return out, rows.Err()
}
