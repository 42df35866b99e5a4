package pilot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pilot.json")

	cfg, err := New(path)

	require.Nil(t, err)
	assert.Equal(t, path, cfg.Path())
	assert.Empty(t, cfg.Keys())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pilot.json")

	cfg, err := New(path)
	require.Nil(t, err)
	cfg.Set("server", "orchestrator:8080")
	cfg.Set("slots", 4)
	cfg.Set("tags", []string{"gpu"})
	require.Nil(t, cfg.Write())

	data, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Equal(t, "{\n  \"server\": \"orchestrator:8080\",\n  \"slots\": 4,\n  \"tags\": [\n    \"gpu\"\n  ]\n}", string(data))

	loaded, err := New(path)
	require.Nil(t, err)
	assert.Equal(t, []string{"server", "slots", "tags"}, loaded.Keys())
	assert.Equal(t, "orchestrator:8080", loaded.GetString("server"))

	slots, ok := loaded.Get("slots")
	assert.True(t, ok)
	assert.Equal(t, float64(4), slots)
}

func TestDeleteAndOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pilot.json")
	require.Nil(t, os.WriteFile(path, []byte(`{"a": "1", "b": "2"}`), 0644))

	cfg, err := New(path)
	require.Nil(t, err)
	cfg.Delete("a")
	cfg.Set("b", "3")
	require.Nil(t, cfg.Write())

	loaded, err := New(path)
	require.Nil(t, err)
	assert.Equal(t, []string{"b"}, loaded.Keys())
	assert.Equal(t, "3", loaded.GetString("b"))

	_, ok := loaded.Get("a")
	assert.False(t, ok)
}

func TestGetStringWrongType(t *testing.T) {
	cfg, err := New(filepath.Join(t.TempDir(), "pilot.json"))
	require.Nil(t, err)
	cfg.Set("slots", 4)

	assert.Equal(t, "", cfg.GetString("slots"))
	assert.Equal(t, "", cfg.GetString("missing"))
}

func TestNewBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pilot.json")
	require.Nil(t, os.WriteFile(path, []byte("not json"), 0644))

	cfg, err := New(path)

	assert.Nil(t, cfg)
	assert.NotNil(t, err)
}
