package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/state"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idlecore-test.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndLoadState_RoundTrips(t *testing.T) {
	db := openTestDB(t)

	s := state.New(10)
	s.GP = 42
	inv, _ := s.Inventory.Add("logs_normal", 7)
	s.Inventory = inv
	ss := s.SkillStates[catalog.SkillWoodcutting]
	ss.XP = 83
	s.SkillStates[catalog.SkillWoodcutting] = ss

	require.NoError(t, db.SaveState("save-1", s))

	loaded, ok, err := db.LoadState("save-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 42, loaded.GP)
	require.Equal(t, 7, loaded.Inventory.CountOf("logs_normal"))
	require.Equal(t, 83.0, loaded.SkillStates[catalog.SkillWoodcutting].XP)
}

func TestLoadState_MissingSaveReturnsNotOk(t *testing.T) {
	db := openTestDB(t)

	_, ok, err := db.LoadState("does-not-exist")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSaveState_UpsertsOnRepeatedSave(t *testing.T) {
	db := openTestDB(t)

	s := state.New(10)
	s.GP = 1
	require.NoError(t, db.SaveState("save-1", s))

	s.GP = 2
	require.NoError(t, db.SaveState("save-1", s))

	loaded, ok, err := db.LoadState("save-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, loaded.GP)
}

func TestSaveChangesAndTrim(t *testing.T) {
	db := openTestDB(t)

	c := state.NewChanges()
	c.InventoryDelta["logs_normal"] = 3
	require.NoError(t, db.SaveChanges("save-1", 0, 30, c))
	require.NoError(t, db.SaveChanges("save-1", 30, 60, c))

	removed, err := db.TrimOldChanges("save-1", 1000, 100)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
}

func TestMeta_RoundTrips(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveMeta("seed", "1"))
	got, err := db.GetMeta("seed")
	require.NoError(t, err)
	require.Equal(t, "1", got)

	missing, err := db.GetMeta("unset-key")
	require.NoError(t, err)
	require.Equal(t, "", missing)
}
