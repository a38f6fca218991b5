// Package export writes a generated world as a self-describing snapshot:
// per-cell geometry and layers plus global metadata.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/realmgen/internal/boundary"
	"github.com/talgya/realmgen/internal/geom"
	"github.com/talgya/realmgen/internal/hydro"
	"github.com/talgya/realmgen/internal/politics"
	"github.com/talgya/realmgen/internal/roads"
	"github.com/talgya/realmgen/internal/world"
)

// Version is bumped whenever the snapshot layout changes incompatibly.
const Version = 1

// Meta describes the whole world.
type Meta struct {
	Version       int       `json:"version"`
	WorldID       string    `json:"world_id"`
	Seed          int64     `json:"seed"`
	Stage         string    `json:"stage"`
	GeneratedAt   time.Time `json:"generated_at"`
	Width         float64   `json:"width"`
	Height        float64   `json:"height"`
	CellCount     int       `json:"cell_count"`
	ElevationUnit string    `json:"elevation_unit"`
	ElevationMin  *float64  `json:"elevation_min,omitempty"`
	ElevationMax  *float64  `json:"elevation_max,omitempty"`
	SeaLevel      *float64  `json:"sea_level,omitempty"`
}

// Cell is one cell with whatever layers have been computed.
type Cell struct {
	ID            int         `json:"id"`
	Center        geom.Vec2   `json:"center"`
	Polygon       []geom.Vec2 `json:"polygon"`
	Neighbors     []int       `json:"neighbors"`
	Elevation     *float64    `json:"elevation,omitempty"`
	Land          *bool       `json:"land,omitempty"`
	Drainage      *int        `json:"drainage,omitempty"`
	Precipitation *float64    `json:"precipitation,omitempty"`
	Terrain       string      `json:"terrain,omitempty"`
	Kingdom       *int        `json:"kingdom,omitempty"`
}

// Snapshot is the full export.
type Snapshot struct {
	Meta       Meta               `json:"meta"`
	Cells      []Cell             `json:"cells"`
	Rivers     []hydro.River      `json:"rivers,omitempty"`
	Lakes      []hydro.Lake       `json:"lakes,omitempty"`
	Kingdoms   []politics.Kingdom `json:"kingdoms,omitempty"`
	Cities     []politics.City    `json:"cities,omitempty"`
	Roads      []roads.Road       `json:"roads,omitempty"`
	Coastlines []geom.Loop        `json:"coastlines,omitempty"`
	Borders    []boundary.Border  `json:"borders,omitempty"`
}

// Build converts a world into a snapshot. Returns nil for a world without
// points.
func Build(w *world.WorldState) *Snapshot {
	if !w.Has(world.StagePoints) {
		return nil
	}
	n := w.CellCount()
	snap := &Snapshot{
		Meta: Meta{
			Version:       Version,
			WorldID:       w.ID.String(),
			Seed:          w.Seed,
			Stage:         w.Completed.String(),
			GeneratedAt:   w.GeneratedAt,
			Width:         w.Width,
			Height:        w.Height,
			CellCount:     n,
			ElevationUnit: "m",
		},
		Cells: make([]Cell, n),
	}
	if w.Elevation != nil {
		lo, hi := w.ElevationRange()
		sea := w.SeaLevel
		snap.Meta.ElevationMin, snap.Meta.ElevationMax, snap.Meta.SeaLevel = &lo, &hi, &sea
	}

	for i := 0; i < n; i++ {
		c := Cell{
			ID:        i,
			Center:    w.Mesh.Site(i),
			Polygon:   w.Mesh.Polygon(i),
			Neighbors: w.Mesh.Neighbors(i),
		}
		if w.Elevation != nil {
			c.Elevation = &w.Elevation[i]
			c.Land = &w.Land[i]
		}
		if w.Hydro != nil && w.Hydro.Drainage[i] != hydro.None {
			c.Drainage = &w.Hydro.Drainage[i]
		}
		if w.Precipitation != nil {
			c.Precipitation = &w.Precipitation[i]
			c.Terrain = w.Terrain[i].String()
		}
		if w.Politics != nil && w.Politics.KingdomOf[i] != politics.None {
			c.Kingdom = &w.Politics.KingdomOf[i]
		}
		snap.Cells[i] = c
	}

	if w.Hydro != nil {
		snap.Rivers = w.Hydro.Rivers
		snap.Lakes = w.Hydro.Lakes
	}
	if w.Politics != nil {
		snap.Kingdoms = w.Politics.Kingdoms
	}
	snap.Cities = w.Cities
	snap.Roads = w.Roads
	snap.Coastlines = w.Coastlines
	snap.Borders = w.Borders
	return snap
}

// Encode writes snap as JSON, zstd-compressed when compress is set.
func Encode(out io.Writer, snap *Snapshot, compress bool) error {
	if !compress {
		return json.NewEncoder(out).Encode(snap)
	}
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(snap); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	return enc.Close()
}

// Decode reads a snapshot written by Encode.
func Decode(in io.Reader, compressed bool) (*Snapshot, error) {
	var snap Snapshot
	if compressed {
		dec, err := zstd.NewReader(in)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		in = dec
	}
	if err := json.NewDecoder(in).Decode(&snap); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return &snap, nil
}

// WriteFile writes snap to path, compressing when the name ends in ".zst".
func WriteFile(path string, snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(f, 256*1024)
	if err := Encode(bw, snap, compressed(path)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile loads a snapshot written by WriteFile.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	snap, err := Decode(bufio.NewReaderSize(f, 256*1024), compressed(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return snap, nil
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}
