package images

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNewStorage(t *testing.T) {
	base := t.TempDir()
	s, err := NewStorage(base)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(base, "shares"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(base, "shares", "shr_1.png"), s.Path("shr_1"))

	_, err = NewStorage("")
	assert.Error(t, err)
}

func TestStorage_SaveGet(t *testing.T) {
	s := newStorage(t)

	require.NoError(t, s.Save("shr_1", []byte("first")))
	require.NoError(t, s.Save("shr_1", []byte("second")))

	data, err := s.Get("shr_1")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	_, err = os.Stat(s.Path("shr_1") + ".tmp")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	assert.ErrorContains(t, s.Save("shr_1", nil), "empty")

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_RejectsEscapingKeys(t *testing.T) {
	s := newStorage(t)

	for _, key := range []string{"", "..", "../x", "a/b", `a\b`, "/abs"} {
		assert.ErrorIs(t, s.Save(key, []byte("x")), ErrInvalidKey, key)
		_, err := s.Get(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		assert.ErrorIs(t, s.Delete(key), ErrInvalidKey, key)
		assert.False(t, s.Exists(key), key)
	}
}

func TestStorage_ExistsDelete(t *testing.T) {
	s := newStorage(t)
	assert.False(t, s.Exists("shr_1"))

	require.NoError(t, s.Save("shr_1", []byte("x")))
	assert.True(t, s.Exists("shr_1"))

	require.NoError(t, s.Delete("shr_1"))
	assert.False(t, s.Exists("shr_1"))
	require.NoError(t, s.Delete("shr_1"))
}

func TestETag(t *testing.T) {
	a := ETag([]byte("one"))
	assert.Len(t, a, 34)
	assert.Equal(t, a, ETag([]byte("one")))
	assert.NotEqual(t, a, ETag([]byte("two")))
}

func TestStorage_ConcurrentSaves(t *testing.T) {
	s := newStorage(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			assert.NoError(t, s.Save("shr_1", []byte{byte(i + 1)}))
		})
	}
	wg.Wait()

	data, err := s.Get("shr_1")
	require.NoError(t, err)
	assert.Len(t, data, 1)
}
