// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "snapshots"), 0o755))
	s := Open(dir)
	require.NoError(t, s.InitState())
	return s
}

func TestStore_NextIDMonotonic(t *testing.T) {
	s := newStore(t)

	id1, err := s.NextID()
	require.NoError(t, err)
	assert.Equal(t, 1, id1)

	id2, err := s.NextID()
	require.NoError(t, err)
	assert.Equal(t, 2, id2)
}

func TestStore_NextIDSurvivesDeletion(t *testing.T) {
	s := newStore(t)

	id1, err := s.NextID()
	require.NoError(t, err)
	m := &Manifest{ID: id1, Timestamp: time.Now().UTC(), Files: map[string]FileEntry{}}
	require.NoError(t, s.Write(m))

	id2, err := s.NextID()
	require.NoError(t, err)

	require.NoError(t, s.Delete(id1))
	require.NoError(t, s.Delete(id2))

	id3, err := s.NextID()
	require.NoError(t, err)
	assert.Equal(t, 3, id3, "ids are never reused even after deletion")
}

func TestStore_WriteReadRoundTrip(t *testing.T) {
	s := newStore(t)

	m := &Manifest{
		ID:        1,
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Files: map[string]FileEntry{
			"a.txt": {Size: 5, Hash: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
		},
	}
	require.NoError(t, s.Write(m))

	got, err := s.Read(1)
	require.NoError(t, err)
	assert.Equal(t, m.Files, got.Files)
	assert.True(t, m.Timestamp.Equal(got.Timestamp))
}

func TestStore_ReadMissing(t *testing.T) {
	s := newStore(t)
	_, err := s.Read(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListAscending(t *testing.T) {
	s := newStore(t)
	for _, id := range []int{3, 1, 2} {
		require.NoError(t, s.Write(&Manifest{ID: id, Timestamp: time.Now().UTC(), Files: map[string]FileEntry{}}))
	}

	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Write(&Manifest{ID: 1, Timestamp: time.Now().UTC(), Files: map[string]FileEntry{}}))

	require.NoError(t, s.Delete(1))
	require.NoError(t, s.Delete(1))
}

func TestStore_MaxExistingID(t *testing.T) {
	s := newStore(t)

	_, ok, err := s.MaxExistingID()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write(&Manifest{ID: 1, Timestamp: time.Now().UTC(), Files: map[string]FileEntry{}}))
	require.NoError(t, s.Write(&Manifest{ID: 2, Timestamp: time.Now().UTC(), Files: map[string]FileEntry{}}))

	max, ok, err := s.MaxExistingID()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, max)
}
