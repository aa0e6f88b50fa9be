package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dygy/transcription-studio/internal/analysis"
)

const body = `{"file_id":"abc","filename":"a.wav","midi_url":"/download/midi/abc","analysis":{"tempo":120,"key":"C Major","time_signature":"4/4"}}`

func TestKeyForFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	c := filepath.Join(dir, "c.wav")
	os.WriteFile(a, []byte("same bytes"), 0644)
	os.WriteFile(b, []byte("same bytes"), 0644)
	os.WriteFile(c, []byte("other bytes"), 0644)

	ka, err := KeyForFile(a)
	require.NoError(t, err)
	kb, _ := KeyForFile(b)
	kc, _ := KeyForFile(c)

	assert.Equal(t, ka, kb)
	assert.NotEqual(t, ka, kc)
	assert.Len(t, ka, len("file_")+16)

	_, err = KeyForFile(filepath.Join(dir, "missing.wav"))
	assert.Error(t, err)
}

func TestPutGet(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, "http://localhost:8000/")
	require.NoError(t, err)

	_, ok := c.Get("file_1")
	assert.False(t, ok)

	resp, err := analysis.Parse([]byte(body))
	require.NoError(t, err)
	require.NoError(t, c.Put("file_1", resp))

	cached, ok := c.Get("file_1")
	require.True(t, ok)
	assert.Equal(t, "abc", cached.Response.FileID)
	assert.Equal(t, body, string(cached.Response.Raw))

	size, count, err := c.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Greater(t, size, int64(len(body)))

	// another service does not see the entry
	other, err := New(dir, "http://remote:9000")
	require.NoError(t, err)
	_, ok = other.Get("file_1")
	assert.False(t, ok)

	require.NoError(t, c.Clear())
	_, ok = c.Get("file_1")
	assert.False(t, ok)
}

func TestPutRequiresBody(t *testing.T) {
	c, err := New(t.TempDir(), "x")
	require.NoError(t, err)
	assert.Error(t, c.Put("k", &analysis.TranscriptionResponse{FileID: "abc"}))
}
