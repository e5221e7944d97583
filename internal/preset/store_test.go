package preset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quasilyte/gdata/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() Records {
	return Records{
		"classic": {Zoom: 1, Hue: 120, Ghost: [3]float64{40, 40, 40}, Speed: [3]float64{1, 1, 1}, Density: [3]float64{300, 150, 40}},
		"ember":   {Zoom: 2, Hue: 15, Ghost: [3]float64{90, 60, 20}, Pan: [2]float64{100, -50}, Speed: [3]float64{0.5, 1, 3}, Density: [3]float64{900, 20, 5}},
	}
}

func TestFileStoreMissingLoadsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "matrix_presets.json"), nil)
	rs, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestFileStoreCorruptLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix_presets.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	rs, err := NewFileStore(path, nil).Load()
	assert.True(t, errors.Is(err, ErrCorrupt))
	assert.NotNil(t, rs)
	assert.Empty(t, rs)
}

func TestFileStoreSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matrix_presets.json")
	s := NewFileStore(path, nil)

	require.NoError(t, s.Save(sampleRecords()))
	rs, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), rs)

	// no temporary files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreSaveFailureKeepsOldFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matrix_presets.json")
	s := NewFileStore(path, nil)
	require.NoError(t, s.Save(sampleRecords()))

	bad := NewFileStore(filepath.Join(dir, "missing-dir", "matrix_presets.json"), nil)
	bad.retries = 1
	assert.Error(t, bad.Save(Records{}))

	rs, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, rs, 2)
}

func TestGDataStoreNilManagerIsMemoryOnly(t *testing.T) {
	s := NewGDataStore(nil)
	rs, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, rs)

	require.NoError(t, s.Save(sampleRecords()))
	rs, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), rs)

	// loaded records are copies
	delete(rs, "ember")
	again, _ := s.Load()
	assert.Len(t, again, 2)
}

func TestGDataStoreSaveLoad(t *testing.T) {
	tempDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	defer os.Setenv("HOME", originalHome)

	m, err := gdata.Open(gdata.Config{AppName: "matrix_presets_test"})
	require.NoError(t, err)
	s := NewGDataStore(m)

	rs, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, rs)

	require.NoError(t, s.Save(sampleRecords()))
	rs, err = NewGDataStore(m).Load()
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), rs)
}
