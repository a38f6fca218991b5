package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/realmgen/internal/world"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "realm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveWorld(t *testing.T) {
	db := openTest(t)
	w, err := world.NewSession(world.SmallTestConfig(), nil).Generate(0, 0)
	require.NoError(t, err)
	require.NoError(t, db.SaveWorld(w))

	n, err := db.CellCount()
	require.NoError(t, err)
	assert.Equal(t, w.CellCount(), n)

	land := 0
	for _, l := range w.Land {
		if l {
			land++
		}
	}
	got, err := db.LandCellCount()
	require.NoError(t, err)
	assert.Equal(t, land, got)

	meta, err := db.LoadMeta()
	require.NoError(t, err)
	assert.Equal(t, w.ID.String(), meta["world_id"])
	assert.Equal(t, "42", meta["seed"])
	assert.Equal(t, "kingdoms", meta["stage"])

	kingdoms, err := db.KingdomSummaries()
	require.NoError(t, err)
	require.Len(t, kingdoms, w.KingdomCount())
	for i, k := range kingdoms {
		assert.Equal(t, w.Politics.Kingdoms[i].Name, k.Name)
		assert.Equal(t, len(w.Politics.Kingdoms[i].Cells), k.CellCount)
		assert.Equal(t, w.Politics.Kingdoms[i].Centroid.X, k.CentroidX)
		assert.Equal(t, w.Politics.Kingdoms[i].Centroid.Y, k.CentroidY)
		assert.GreaterOrEqual(t, k.Cities, 1, "capital counts as a city")
	}
}

func TestSaveWorldReplacesPrevious(t *testing.T) {
	db := openTest(t)
	s := world.NewSession(world.SmallTestConfig(), nil)

	first, err := s.Generate(1, 0)
	require.NoError(t, err)
	require.NoError(t, db.SaveWorld(first))

	second, err := s.GeneratePoints(2, 120)
	require.NoError(t, err)
	require.NoError(t, db.SaveWorld(second))

	n, err := db.CellCount()
	require.NoError(t, err)
	assert.Equal(t, 120, n)

	kingdoms, err := db.KingdomSummaries()
	require.NoError(t, err)
	assert.Empty(t, kingdoms)

	log, err := db.RecentGenerations(10)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, second.ID.String(), log[0].WorldID)
	assert.Equal(t, "points", log[0].Stage)
}

func TestSaveNothing(t *testing.T) {
	db := openTest(t)
	assert.Error(t, db.SaveWorld(nil))
}

func TestMeta(t *testing.T) {
	db := openTest(t)
	require.NoError(t, db.SaveMeta("note", "hello"))
	v, err := db.GetMeta("note")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	_, err = db.GetMeta("missing")
	assert.Error(t, err)
}
