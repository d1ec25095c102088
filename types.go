// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package timemachine

import (
	"time"

	"github.com/masiedu4/timemachine/manifest"
)

// FileRecord is a single (path, size, hash) tuple describing one file,
// either as scanned from the live tree or as stored in a manifest.
type FileRecord struct {
	// Path is relative to the tracked root, using forward-slash
	// separators, with no leading separator and no "." or ".."
	// components.
	Path string

	// Size is the logical (uncompressed) byte count of the file.
	Size int64

	// Hash is the lowercase hex SHA-256 of the file's contents.
	Hash string
}

// FileSet is a file-record collection keyed by path: the engine's
// in-memory form of a scan result, converted to differ entries for
// comparison.
type FileSet map[string]FileRecord

// Manifest is an in-memory snapshot manifest. It mirrors
// manifest.Manifest field-for-field; the alias keeps callers of this
// package from importing the manifest package directly for the common
// case.
type Manifest = manifest.Manifest

// ManifestFile is the per-file entry inside a manifest.
type ManifestFile = manifest.FileEntry

// Change classifies a single path's status between two file sets.
type Change struct {
	Path string
	Old  *FileRecord // nil for additions
	New  *FileRecord // nil for removals
}

// ChangeSet is the result of comparing two file sets: paths present in
// the new set but not the old (Added), paths present in the old set but
// not the new (Removed), and paths present in both with a differing
// hash (Modified). All three slices are sorted lexicographically by
// path.
type ChangeSet struct {
	Added    []string
	Removed  []string
	Modified []string
}

// IsEmpty reports whether the change set contains no differences.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// SnapshotInfo is the summary returned by List for one snapshot.
type SnapshotInfo struct {
	ID               int
	Timestamp        time.Time
	FileCount        int
	TotalLogicalSize int64

	// OnDiskSize is populated only when List is called with detailed=true.
	OnDiskSize      int64
	OnDiskSizeKnown bool
}

// RestorePlan describes the file operations a restore will perform (or
// has performed, for a non-dry-run call).
type RestorePlan struct {
	SnapshotID int
	Create     []string
	Overwrite  []string
	Delete     []string
	DryRun     bool

	// ForceSnapshotID is the id of the snapshot that was taken to back
	// up uncommitted changes before applying the restore, or 0 if none
	// was needed.
	ForceSnapshotID int
}

// TotalChanges returns the number of paths the plan touches.
func (p RestorePlan) TotalChanges() int {
	return len(p.Create) + len(p.Overwrite) + len(p.Delete)
}

// DeleteResult summarizes the outcome of Delete.
type DeleteResult struct {
	SnapshotID   int
	ObjectsFreed int
	BytesFreed   int64
	CleanupRun   bool
}

// CleanupResult summarizes the outcome of Cleanup.
type CleanupResult struct {
	ObjectsFreed int
	BytesFreed   int64
}
