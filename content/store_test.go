// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package content

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetRoundTrip(t *testing.T) {
	store := Open(t.TempDir())

	hash, err := store.Put([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", hash)

	got, err := store.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestStore_PutIsIdempotent(t *testing.T) {
	store := Open(t.TempDir())

	hash1, err := store.Put([]byte("same content"))
	require.NoError(t, err)
	hash2, err := store.Put([]byte("same content"))
	require.NoError(t, err)

	assert.Equal(t, hash1, hash2)

	hashes, err := store.Enumerate()
	require.NoError(t, err)
	assert.Len(t, hashes, 1)
}

func TestStore_GetMissing(t *testing.T) {
	store := Open(t.TempDir())

	_, err := store.Get(strings.Repeat("0", 64))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	store := Open(t.TempDir())

	hash, err := store.Put([]byte("gone soon"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(hash))
	require.NoError(t, store.Delete(hash)) // second delete: not an error

	assert.False(t, store.Exists(hash))
}

func TestStore_Enumerate(t *testing.T) {
	store := Open(t.TempDir())

	h1, err := store.Put([]byte("one"))
	require.NoError(t, err)
	h2, err := store.Put([]byte("two"))
	require.NoError(t, err)

	hashes, err := store.Enumerate()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{h1, h2}, hashes)
}

func TestStore_SizeReflectsCompressedBytes(t *testing.T) {
	store := Open(t.TempDir())

	data := make([]byte, 1<<20) // 1MiB of zeros, compresses very well
	hash, err := store.Put(data)
	require.NoError(t, err)

	size, err := store.Size(hash)
	require.NoError(t, err)
	assert.Less(t, size, int64(len(data)))
}

func TestStore_PutReaderMatchesPut(t *testing.T) {
	store := Open(t.TempDir())

	body := []byte("streamed content")
	hash, n, err := store.PutReader(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), n)

	putHash, err := store.Put(body)
	require.NoError(t, err)
	assert.Equal(t, putHash, hash)

	got, err := store.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}
