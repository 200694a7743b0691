package progress

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterFlushesLatestOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	w := NewWriter(path, nil)

	db := New(nil)
	for page := 0; page < 50; page++ {
		db.Upsert("a.epub", "/a.epub", page)
		w.Write(db.Rows())
	}
	db.Upsert("b.epub", "/b.epub", 3)
	w.Write(db.Rows())
	w.Close()

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, db.Rows(), reloaded.Rows())
}

func TestWriterCopiesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	w := NewWriter(path, nil)

	rows := []Row{{File: "/a.epub", Filename: "a.epub", CurrentPage: 1}}
	w.Write(rows)
	rows[0].CurrentPage = 42
	w.Close()

	reloaded, err := Load(path)
	require.NoError(t, err)
	row, ok := reloaded.Lookup("/a.epub")
	require.True(t, ok)
	require.Equal(t, 1, row.CurrentPage)
}

func TestWriterCloseTwiceAndWriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	w := NewWriter(path, nil)
	w.Close()
	w.Close()

	w.Write([]Row{{File: "/a.epub", Filename: "a.epub"}})

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0, reloaded.Len())
}
