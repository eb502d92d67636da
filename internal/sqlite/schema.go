// Package sqlite implements a GridIndex backed by an in-memory SQLite
// database. Cell flags live in a single table so tooling can query
// occupancy with SQL; the database is never written to disk.
package sqlite

// Schema DDL for the cell flag store.
const (
	createCellFlags = `CREATE TABLE cell_flags (
    cx INTEGER NOT NULL,
    cz INTEGER NOT NULL,
    flag INTEGER NOT NULL,
    owner TEXT NOT NULL,
    refs INTEGER NOT NULL,
    PRIMARY KEY (cx, cz, flag, owner)
);`
)

// Index DDL for common queries.
const (
	idxCellFlagsOwner = `CREATE INDEX idx_cell_flags_owner ON cell_flags(owner);`
	idxCellFlagsFlag  = `CREATE INDEX idx_cell_flags_flag ON cell_flags(flag);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createCellFlags,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxCellFlagsOwner,
	idxCellFlagsFlag,
}

// Statements used by the GridIndex methods.
const (
	sqlUpsertFlag = `INSERT INTO cell_flags (cx, cz, flag, owner, refs) VALUES (?, ?, ?, ?, 1)
ON CONFLICT (cx, cz, flag, owner) DO UPDATE SET refs = refs + 1`
	sqlReleaseFlag = `UPDATE cell_flags SET refs = refs - 1 WHERE cx = ? AND cz = ? AND flag = ? AND owner = ?`
	sqlPurgeFlag   = `DELETE FROM cell_flags WHERE cx = ? AND cz = ? AND flag = ? AND owner = ? AND refs <= 0`
	sqlFlagsOf     = `SELECT DISTINCT flag FROM cell_flags WHERE cx = ? AND cz = ?`
	sqlOwners      = `SELECT owner FROM cell_flags WHERE cx = ? AND cz = ? AND flag = ? ORDER BY owner`
	sqlAllCells    = `SELECT cx, cz, flag, owner, refs FROM cell_flags ORDER BY cz, cx, flag, owner`
	sqlOwnerCells  = `SELECT cx, cz, flag, owner, refs FROM cell_flags WHERE owner = ? ORDER BY cz, cx, flag`
)
