package preset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	records Records
	saveErr error
}

func (s *failingStore) Load() (Records, error) { return s.records.clone(), nil }
func (s *failingStore) Save(Records) error     { return s.saveErr }

func TestBookPutGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix_presets.json")
	b := NewBook(NewFileStore(path, nil), nil)
	require.NoError(t, b.Reload())
	assert.Equal(t, 0, b.Len())

	rec := sampleRecords()["ember"]
	require.NoError(t, b.Put("  ember ", rec))
	require.NoError(t, b.Put("classic", sampleRecords()["classic"]))
	assert.Equal(t, []string{"classic", "ember"}, b.Names())

	got, err := b.Get("ember")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// persisted through the store
	other := NewBook(NewFileStore(path, nil), nil)
	require.NoError(t, other.Reload())
	assert.Equal(t, []string{"classic", "ember"}, other.Names())

	require.NoError(t, b.Delete("classic"))
	assert.Equal(t, []string{"ember"}, b.Names())
	assert.True(t, errors.Is(b.Delete("classic"), ErrNotFound))
}

func TestBookErrors(t *testing.T) {
	b := NewBook(NewGDataStore(nil), nil)
	assert.True(t, errors.Is(b.Put("   ", Record{}), ErrEmptyName))
	_, err := b.Get("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBookSaveFailureLeavesBookUnchanged(t *testing.T) {
	store := &failingStore{records: sampleRecords(), saveErr: errors.New("disk full")}
	b := NewBook(store, nil)
	require.NoError(t, b.Reload())

	err := b.Put("new", Record{Zoom: 3})
	assert.Error(t, err)
	assert.Equal(t, []string{"classic", "ember"}, b.Names())
	assert.Error(t, b.Delete("ember"))
	assert.Equal(t, 2, b.Len())
}

func TestBookReloadCorruptIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix_presets.json")
	b := NewBook(NewFileStore(path, nil), nil)
	require.NoError(t, b.Put("classic", sampleRecords()["classic"]))

	require.NoError(t, os.WriteFile(path, []byte("]]"), 0644))
	err := b.Reload()
	assert.True(t, errors.Is(err, ErrCorrupt))
	assert.Equal(t, 0, b.Len())
}

func TestWatchBookReloadsOnExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix_presets.json")
	b := NewBook(NewFileStore(path, nil), nil)
	require.NoError(t, b.Reload())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := WatchBook(ctx, path, b, nil)
	require.NoError(t, err)
	defer w.Close()

	// another process writes the file
	require.NoError(t, NewFileStore(path, nil).Save(sampleRecords()))

	assert.Eventually(t, func() bool { return b.Len() == 2 }, 5*time.Second, 20*time.Millisecond)
}
