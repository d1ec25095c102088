// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

// Package timemachine implements a directory-scoped file-versioning
// engine.
//
// A caller designates a directory for tracking; the engine records
// point-in-time snapshots of the directory's file tree, detects changes
// between snapshots and against the live tree, restores the tree to any
// prior snapshot, and reclaims space when snapshots are deleted. There
// are no branches, merges, or remotes — only a linearly numbered
// sequence of snapshots per tracked directory.
//
// # Usage
//
//	eng := timemachine.New("/path/to/project")
//	if err := eng.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	snap, err := eng.Snapshot()
//
// # Design
//
// Tracking state lives in a `.timemachine/` subtree of the tracked
// directory:
//
//	.timemachine/state.json       next snapshot id
//	.timemachine/contents/<hash[:2]>/<hash>  zstd-compressed file bodies,
//	                              keyed by the SHA-256 of their
//	                              uncompressed bytes (a flat
//	                              contents/<hash> is also read)
//	.timemachine/snapshots/<id>.json  one manifest per snapshot
//
// Content objects are addressed by hash, so identical file bodies
// across snapshots are stored once. Reference counts are never
// persisted; they are recomputed on demand from the set of manifests
// still on disk, which is what makes `cleanup` idempotent and safe to
// run at any time.
package timemachine
