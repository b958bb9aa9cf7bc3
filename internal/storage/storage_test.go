package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "storage"))
	require.NoError(t, err)
	return s
}

func TestPutOpenDelete(t *testing.T) {
	s := testStore(t)

	key, err := s.Put("documents", "plan.pdf", strings.NewReader("%PDF-1.4 content"))
	require.NoError(t, err)
	assert.Equal(t, "documents/plan.pdf", key)
	assert.True(t, s.Exists(key))

	f, err := s.Open(key)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 content", string(data))

	require.NoError(t, s.Delete(key))
	assert.False(t, s.Exists(key))
	assert.Error(t, s.Delete(key))
}

func TestKeysNeverEscapeRoot(t *testing.T) {
	s := testStore(t)

	_, err := s.Put("..", "escape.txt", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = s.Put("documents", "../../etc/passwd", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = s.Open("/etc/passwd")
	assert.Error(t, err)

	assert.Error(t, s.Delete("../outside"))
	assert.False(t, s.Exists("../outside"))
}

func TestSweepRemovesOnlyOldFiles(t *testing.T) {
	s := testStore(t)

	oldKey, err := s.Put("imports", "old.xlsx", strings.NewReader("old"))
	require.NoError(t, err)
	_, err = s.Put("imports", "fresh.xlsx", strings.NewReader("fresh"))
	require.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(s.Path(oldKey), stale, stale))

	removed, err := s.Sweep("imports", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, s.Exists("imports/old.xlsx"))
	assert.True(t, s.Exists("imports/fresh.xlsx"))
}

func TestSweepMissingDir(t *testing.T) {
	s := testStore(t)

	removed, err := s.Sweep("exports", time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
