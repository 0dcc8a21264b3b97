package publish

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONCreatesDirectoriesAndKeepsText(t *testing.T) {
	w := New(t.TempDir())
	require.NoError(t, w.WriteJSON("archive/index.json", map[string]any{"name": "Şişecam <A.Ş.>"}))

	data, err := w.Read("archive/index.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Şişecam <A.Ş.>"`)

	entries, err := os.ReadDir(filepath.Join(w.Dir(), "archive"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestWriteJSONReplaces(t *testing.T) {
	w := New(t.TempDir())
	require.NoError(t, w.WriteJSON("a.json", []int{1}))
	require.NoError(t, w.WriteJSON("a.json", []int{2, 3}))

	var got []int
	data, err := w.Read("a.json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []int{2, 3}, got)
}

func TestWriteJSONEncodeError(t *testing.T) {
	w := New(t.TempDir())
	assert.Error(t, w.WriteJSON("bad.json", map[string]any{"f": func() {}}))
	_, err := os.Stat(w.Path("bad.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestVersionsArePruned(t *testing.T) {
	w := New(t.TempDir())
	day := time.Date(2025, time.March, 20, 9, 0, 0, 0, time.UTC)

	for _, d := range []time.Time{day.AddDate(0, 0, -45), day.AddDate(0, 0, -31), day.AddDate(0, 0, -5), day} {
		w.now = func() time.Time { return d }
		_, err := w.Version("versions", "temettu", []string{"x"})
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(w.Path("versions/notes.txt"), []byte("keep"), 0o644))

	w.now = func() time.Time { return day }
	removed, err := w.PruneVersions("versions", "temettu", 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"temettu_2025-02-03.json", "temettu_2025-02-17.json"}, removed)

	entries, err := os.ReadDir(w.Path("versions"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"notes.txt", "temettu_2025-03-15.json", "temettu_2025-03-20.json"}, names)
}

func TestPruneMissingDirectory(t *testing.T) {
	removed, err := New(t.TempDir()).PruneVersions("nope", "temettu", time.Hour)
	assert.NoError(t, err)
	assert.Empty(t, removed)
}

func TestRepairFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "temettu.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"t_sirketadi":"TÃœPRAÅž"}]`), 0o644))

	changed, err := RepairFile(path)
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TÜPRAŞ")

	changed, err = RepairFile(path)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRepairFileLeavesRealLettersAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temettu.json")
	body := []byte(`[{"t_sirketadi":"Âdem Holding"}]`)
	require.NoError(t, os.WriteFile(path, body, 0o600))
	before, err := os.Stat(path)
	require.NoError(t, err)

	changed, err := RepairFile(path)
	require.NoError(t, err)
	assert.False(t, changed)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.Mode(), after.Mode())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestRepairFileInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":"Ã‡`), 0o644))
	_, err := RepairFile(path)
	assert.Error(t, err)
}
