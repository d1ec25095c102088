// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan_BasicTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	writeFile(t, root, "sub/b.txt", "world")

	records, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byPath := map[string]Record{}
	for _, r := range records {
		byPath[r.Path] = r
	}
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", byPath["a.txt"].Hash)
	assert.Equal(t, int64(5), byPath["a.txt"].Size)
	assert.Contains(t, byPath, "sub/b.txt")
}

func TestScan_SkipsMetadataSubtree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.txt", "kept")
	writeFile(t, root, ".timemachine/state.json", `{"next_id":1}`)
	writeFile(t, root, ".timemachine/snapshots/1.json", `{}`)

	records, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "keep.txt", records[0].Path)
}

func TestScan_SkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "real.txt", "real content")
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")))

	records, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "real.txt", records[0].Path)
}

func TestScan_EmptyDirectory(t *testing.T) {
	root := t.TempDir()

	records, err := Scan(root)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"a.txt", false},
		{"sub/dir/b.txt", false},
		{".", true},
		{"../escape.txt", true},
		{"sub/../escape.txt", true},
	}
	for _, c := range cases {
		_, err := Normalize(c.in)
		if c.wantErr {
			assert.Error(t, err, c.in)
		} else {
			assert.NoError(t, err, c.in)
		}
	}
}
