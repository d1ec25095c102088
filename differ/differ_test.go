// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff_AddedRemovedModified(t *testing.T) {
	old := map[string]Entry{
		"keep.txt":   {Size: 1, Hash: "h1"},
		"remove.txt": {Size: 1, Hash: "h2"},
		"change.txt": {Size: 3, Hash: "h3"},
	}
	new := map[string]Entry{
		"keep.txt":   {Size: 1, Hash: "h1"},
		"change.txt": {Size: 3, Hash: "h3changed"},
		"add.txt":    {Size: 2, Hash: "h4"},
	}

	cs := Diff(old, new)
	assert.Equal(t, []string{"add.txt"}, cs.Added)
	assert.Equal(t, []string{"remove.txt"}, cs.Removed)
	assert.Equal(t, []string{"change.txt"}, cs.Modified)
}

func TestDiff_SameSizeDifferentHashIsModified(t *testing.T) {
	old := map[string]Entry{"f.txt": {Size: 10, Hash: "aaa"}}
	new := map[string]Entry{"f.txt": {Size: 10, Hash: "bbb"}}

	cs := Diff(old, new)
	assert.Equal(t, []string{"f.txt"}, cs.Modified)
	assert.Empty(t, cs.Added)
	assert.Empty(t, cs.Removed)
}

func TestDiff_EmptyOldEverythingAdded(t *testing.T) {
	new := map[string]Entry{
		"a.txt": {Size: 1, Hash: "h1"},
		"b.txt": {Size: 1, Hash: "h2"},
	}

	cs := Diff(nil, new)
	assert.Equal(t, []string{"a.txt", "b.txt"}, cs.Added)
	assert.Empty(t, cs.Removed)
	assert.Empty(t, cs.Modified)
}

func TestDiff_Symmetry(t *testing.T) {
	a := map[string]Entry{
		"x.txt": {Size: 1, Hash: "h1"},
		"y.txt": {Size: 2, Hash: "h2"},
	}
	b := map[string]Entry{
		"y.txt": {Size: 2, Hash: "h2-changed"},
		"z.txt": {Size: 3, Hash: "h3"},
	}

	ab := Diff(a, b)
	ba := Diff(b, a)

	assert.Equal(t, ab.Added, ba.Removed)
	assert.Equal(t, ab.Removed, ba.Added)
	assert.Equal(t, ab.Modified, ba.Modified)
}

func TestDiff_NoChanges(t *testing.T) {
	set := map[string]Entry{"a.txt": {Size: 1, Hash: "h1"}}
	cs := Diff(set, set)
	assert.True(t, cs.IsEmpty())
}
