// Package persistence provides SQLite-based storage for generated worlds.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/realmgen/internal/hydro"
	"github.com/talgya/realmgen/internal/politics"
	"github.com/talgya/realmgen/internal/world"
)

// DB wraps a SQLite connection for world storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cells (
		id INTEGER PRIMARY KEY,
		x REAL NOT NULL,
		y REAL NOT NULL,
		elevation REAL,
		land INTEGER,
		drainage INTEGER,
		precipitation REAL,
		terrain TEXT,
		kingdom_id INTEGER,
		polygon_json TEXT NOT NULL,
		neighbors_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS kingdoms (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		capital INTEGER NOT NULL,
		landmass INTEGER NOT NULL,
		color TEXT NOT NULL,
		cell_count INTEGER NOT NULL,
		centroid_x REAL NOT NULL,
		centroid_y REAL NOT NULL,
		neighbors_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cities (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		cell INTEGER NOT NULL,
		kind TEXT NOT NULL,
		kingdom_id INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rivers (
		id INTEGER PRIMARY KEY,
		flow REAL NOT NULL,
		cells_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS roads (
		id INTEGER PRIMARY KEY,
		from_city INTEGER NOT NULL,
		to_city INTEGER NOT NULL,
		major INTEGER NOT NULL,
		cells_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS generations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		world_id TEXT NOT NULL,
		seed INTEGER NOT NULL,
		stage TEXT NOT NULL,
		cells INTEGER NOT NULL,
		kingdoms INTEGER NOT NULL,
		generated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cells_kingdom ON cells(kingdom_id);
	CREATE INDEX IF NOT EXISTS idx_cities_kingdom ON cities(kingdom_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveWorld replaces the stored world with w in one transaction and appends
// it to the generation log.
func (db *DB) SaveWorld(w *world.WorldState) error {
	if !w.Has(world.StagePoints) {
		return fmt.Errorf("save world: nothing generated")
	}
	slog.Info("saving world", "world", w.ID, "cells", w.CellCount(), "kingdoms", w.KingdomCount())

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"cells", "kingdoms", "cities", "rivers", "roads"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := saveCells(tx, w); err != nil {
		return fmt.Errorf("save cells: %w", err)
	}
	if w.Hydro != nil {
		if err := saveRivers(tx, w.Hydro.Rivers); err != nil {
			return fmt.Errorf("save rivers: %w", err)
		}
	}
	if w.Politics != nil {
		if err := saveKingdoms(tx, w.Politics.Kingdoms); err != nil {
			return fmt.Errorf("save kingdoms: %w", err)
		}
		if err := saveCities(tx, w.Cities); err != nil {
			return fmt.Errorf("save cities: %w", err)
		}
		if err := saveRoads(tx, w); err != nil {
			return fmt.Errorf("save roads: %w", err)
		}
	}

	meta := map[string]string{
		"world_id":     w.ID.String(),
		"seed":         strconv.FormatInt(w.Seed, 10),
		"stage":        w.Completed.String(),
		"width":        strconv.FormatFloat(w.Width, 'f', -1, 64),
		"height":       strconv.FormatFloat(w.Height, 'f', -1, 64),
		"cell_count":   strconv.Itoa(w.CellCount()),
		"sea_level":    strconv.FormatFloat(w.SeaLevel, 'f', -1, 64),
		"generated_at": w.GeneratedAt.Format(time.RFC3339Nano),
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO generations
		(world_id, seed, stage, cells, kingdoms, generated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID.String(), w.Seed, w.Completed.String(), w.CellCount(), w.KingdomCount(),
		w.GeneratedAt.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("log generation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("world saved")
	return nil
}

func saveCells(tx *sqlx.Tx, w *world.WorldState) error {
	stmt, err := tx.Preparex(`INSERT INTO cells
		(id, x, y, elevation, land, drainage, precipitation, terrain, kingdom_id,
		 polygon_json, neighbors_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < w.CellCount(); i++ {
		site := w.Mesh.Site(i)
		polyJSON, _ := json.Marshal(w.Mesh.Polygon(i))
		nbJSON, _ := json.Marshal(w.Mesh.Neighbors(i))

		var elev, precip *float64
		var land, drainage, kingdom *int
		var terrain *string
		if w.Elevation != nil {
			elev = &w.Elevation[i]
			l := 0
			if w.Land[i] {
				l = 1
			}
			land = &l
		}
		if w.Hydro != nil && w.Hydro.Drainage[i] != hydro.None {
			drainage = &w.Hydro.Drainage[i]
		}
		if w.Precipitation != nil {
			precip = &w.Precipitation[i]
			t := w.Terrain[i].String()
			terrain = &t
		}
		if w.Politics != nil && w.Politics.KingdomOf[i] != politics.None {
			kingdom = &w.Politics.KingdomOf[i]
		}

		if _, err := stmt.Exec(i, site.X, site.Y, elev, land, drainage, precip, terrain,
			kingdom, string(polyJSON), string(nbJSON)); err != nil {
			return fmt.Errorf("insert cell %d: %w", i, err)
		}
	}
	return nil
}

func saveRivers(tx *sqlx.Tx, rivers []hydro.River) error {
	for _, r := range rivers {
		cellsJSON, _ := json.Marshal(r.Cells)
		if _, err := tx.Exec("INSERT INTO rivers (id, flow, cells_json) VALUES (?, ?, ?)",
			r.ID, r.Flow, string(cellsJSON)); err != nil {
			return fmt.Errorf("insert river %d: %w", r.ID, err)
		}
	}
	return nil
}

func saveKingdoms(tx *sqlx.Tx, kingdoms []politics.Kingdom) error {
	for _, k := range kingdoms {
		nbJSON, _ := json.Marshal(k.Neighbors)
		if _, err := tx.Exec(`INSERT INTO kingdoms
			(id, name, capital, landmass, color, cell_count, centroid_x, centroid_y, neighbors_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			k.ID, k.Name, k.Capital, k.Landmass, k.Color, len(k.Cells),
			k.Centroid.X, k.Centroid.Y, string(nbJSON),
		); err != nil {
			return fmt.Errorf("insert kingdom %d: %w", k.ID, err)
		}
	}
	return nil
}

func saveCities(tx *sqlx.Tx, cities []politics.City) error {
	for _, c := range cities {
		if _, err := tx.Exec(
			"INSERT INTO cities (id, name, cell, kind, kingdom_id) VALUES (?, ?, ?, ?, ?)",
			c.ID, c.Name, c.Cell, c.Kind.String(), c.Kingdom,
		); err != nil {
			return fmt.Errorf("insert city %d: %w", c.ID, err)
		}
	}
	return nil
}

func saveRoads(tx *sqlx.Tx, w *world.WorldState) error {
	for _, r := range w.Roads {
		cellsJSON, _ := json.Marshal(r.Cells)
		major := 0
		if r.Major {
			major = 1
		}
		if _, err := tx.Exec(
			"INSERT INTO roads (id, from_city, to_city, major, cells_json) VALUES (?, ?, ?, ?, ?)",
			r.ID, r.From, r.To, major, string(cellsJSON),
		); err != nil {
			return fmt.Errorf("insert road %d: %w", r.ID, err)
		}
	}
	return nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// LoadMeta returns every metadata pair.
func (db *DB) LoadMeta() (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := db.conn.Select(&rows, "SELECT key, value FROM world_meta"); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// CellCount returns the number of stored cells.
func (db *DB) CellCount() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM cells")
	return n, err
}

// LandCellCount returns the number of stored land cells.
func (db *DB) LandCellCount() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM cells WHERE land = 1")
	return n, err
}

// KingdomSummary is a stored kingdom row.
type KingdomSummary struct {
	ID        int     `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Capital   int     `db:"capital" json:"capital"`
	Color     string  `db:"color" json:"color"`
	CellCount int     `db:"cell_count" json:"cell_count"`
	CentroidX float64 `db:"centroid_x" json:"centroid_x"`
	CentroidY float64 `db:"centroid_y" json:"centroid_y"`
	Cities    int     `db:"cities" json:"cities"`
}

// KingdomSummaries returns the stored kingdoms with their city counts.
func (db *DB) KingdomSummaries() ([]KingdomSummary, error) {
	var out []KingdomSummary
	err := db.conn.Select(&out, `
		SELECT k.id, k.name, k.capital, k.color, k.cell_count, k.centroid_x, k.centroid_y,
		       (SELECT COUNT(*) FROM cities c WHERE c.kingdom_id = k.id) AS cities
		FROM kingdoms k ORDER BY k.id`)
	return out, err
}

// Generation is one entry of the generation log.
type Generation struct {
	WorldID     string `db:"world_id" json:"world_id"`
	Seed        int64  `db:"seed" json:"seed"`
	Stage       string `db:"stage" json:"stage"`
	Cells       int    `db:"cells" json:"cells"`
	Kingdoms    int    `db:"kingdoms" json:"kingdoms"`
	GeneratedAt string `db:"generated_at" json:"generated_at"`
}

// RecentGenerations returns the most recent N saved worlds, newest first.
func (db *DB) RecentGenerations(limit int) ([]Generation, error) {
	var out []Generation
	err := db.conn.Select(&out,
		`SELECT world_id, seed, stage, cells, kingdoms, generated_at
		 FROM generations ORDER BY id DESC LIMIT ?`,
		limit,
	)
	return out, err
}
