package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONSortedAndIndented(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")

	doc := map[string]interface{}{
		"zeta":  1,
		"alpha": map[string]interface{}{"y": "<b>", "x": true},
		"text":  "Привет",
	}
	require.NoError(t, WriteJSON(path, doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `{
  "alpha": {
    "x": true,
    "y": "<b>"
  },
  "text": "Привет",
  "zeta": 1
}
`
	assert.Equal(t, want, string(data))
}

func TestWriteJSONStructKeysSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stamp.json")

	type record struct {
		Timestamp int64  `json:"timestamp"`
		About     string `json:"about"`
	}
	require.NoError(t, WriteJSON(path, record{Timestamp: 9007199254740993, About: "x"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"about\": \"x\",\n  \"timestamp\": 9007199254740993\n}\n", string(data))
}

func TestSafeWriteOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")

	require.NoError(t, SafeWrite(path, strings.NewReader("first version")))
	require.NoError(t, SafeWrite(path, strings.NewReader("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, WriteJSON(path, map[string]int{"n": 3}))

	var got map[string]int
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, 3, got["n"])

	err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &got)
	assert.True(t, os.IsNotExist(err))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	ok, err := Exists(dir)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Exists(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.False(t, ok)
}
