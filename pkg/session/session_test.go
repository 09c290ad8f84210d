package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreLifecycle(t *testing.T) {
	s := NewMemStore()

	_, ok := s.Load()
	assert.False(t, ok)

	require.NoError(t, s.Save("tok-abc"))
	token, ok := s.Load()
	require.True(t, ok)
	assert.Equal(t, "tok-abc", token)

	require.NoError(t, s.Clear())
	_, ok = s.Load()
	assert.False(t, ok)
}

func TestMarkerRoundTrip(t *testing.T) {
	home := t.TempDir()

	_, ok := readMarker(home)
	assert.False(t, ok)

	require.NoError(t, writeMarker(home, []byte("blob")))
	data, ok := readMarker(home)
	require.True(t, ok)
	assert.Equal(t, []byte("blob"), data)

	require.NoError(t, removeMarker(home))
	_, ok = readMarker(home)
	assert.False(t, ok)
}

func TestRemoveMarkerIsNoOpWhenMissing(t *testing.T) {
	home := t.TempDir()
	assert.NoError(t, removeMarker(home))
}
