// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

// Package manifest persists snapshot manifests and the monotonic
// snapshot-id counter for a tracked directory.
//
// Manifests are written as `snapshots/<id>.json`; the id counter lives
// in `state.json` alongside them. Both are written with a
// temp-file-then-rename so a reader never observes a partially written
// file, and the id counter survives deletion of the snapshot it was
// handed out for.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Read when no manifest exists for an id.
var ErrNotFound = errors.New("manifest: not found")

// FileEntry is the per-path record inside a manifest.
type FileEntry struct {
	Size int64  `json:"size"`
	Hash string `json:"hash"`
}

// Manifest is the immutable record of one snapshot's file set.
type Manifest struct {
	ID        int                  `json:"id"`
	Timestamp time.Time            `json:"timestamp"`
	ParentID  *int                 `json:"parent_id"`
	Files     map[string]FileEntry `json:"files"`
}

type state struct {
	NextID int `json:"next_id"`
}

// Store persists manifests and the id counter under dir (normally
// `<root>/.timemachine`).
type Store struct {
	dir          string
	snapshotsDir string
	statePath    string
}

// Open returns a Store rooted at dir. dir and its `snapshots`
// subdirectory must already exist; callers create them as part of
// Init.
func Open(dir string) *Store {
	return &Store{
		dir:          dir,
		snapshotsDir: filepath.Join(dir, "snapshots"),
		statePath:    filepath.Join(dir, "state.json"),
	}
}

// Write serializes m deterministically (sorted keys, via
// encoding/json's native map-key ordering) and durably renames it into
// place at snapshots/<id>.json.
func (s *Store) Write(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encode %d: %w", m.ID, err)
	}

	path := s.path(m.ID)
	tmpPath := filepath.Join(s.snapshotsDir, fmt.Sprintf(".%d.%s.tmp", m.ID, uuid.NewString()))
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("manifest: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("manifest: rename into place: %w", err)
	}
	return nil
}

// Read loads the manifest for id.
func (s *Store) Read(id int) (*Manifest, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("manifest: read %d: %w", id, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode %d: %w", id, err)
	}
	return &m, nil
}

// List returns the ids of every manifest on disk, ascending.
func (s *Store) List() ([]int, error) {
	entries, err := os.ReadDir(s.snapshotsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("manifest: list: %w", err)
	}

	var ids []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		idStr := strings.TrimSuffix(name, ".json")
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue // not a manifest file (e.g. a stray temp file)
		}
		ids = append(ids, id)
	}

	sort.Ints(ids)
	return ids, nil
}

// Delete removes the manifest for id. A missing manifest is not an
// error.
func (s *Store) Delete(id int) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("manifest: delete %d: %w", id, err)
	}
	return nil
}

// NextID returns the next snapshot id and durably increments the
// counter. The first call on a freshly initialized store returns 1.
func (s *Store) NextID() (int, error) {
	st, err := s.readState()
	if err != nil {
		return 0, err
	}

	id := st.NextID
	if id == 0 {
		id = 1
	}

	st.NextID = id + 1
	if err := s.writeState(st); err != nil {
		return 0, err
	}
	return id, nil
}

// MaxExistingID returns the highest id currently present on disk, and
// false if no manifests exist.
func (s *Store) MaxExistingID() (int, bool, error) {
	ids, err := s.List()
	if err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[len(ids)-1], true, nil
}

func (s *Store) readState() (state, error) {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return state{NextID: 1}, nil
		}
		return state{}, fmt.Errorf("manifest: read state: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return state{}, fmt.Errorf("manifest: decode state: %w", err)
	}
	return st, nil
}

func (s *Store) writeState(st state) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encode state: %w", err)
	}

	tmpPath := filepath.Join(s.dir, fmt.Sprintf(".state.%s.tmp", uuid.NewString()))
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("manifest: write state temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.statePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("manifest: rename state into place: %w", err)
	}
	return nil
}

// InitState creates the initial state.json with next_id=1. Init fails
// if one already exists.
func (s *Store) InitState() error {
	if _, err := os.Stat(s.statePath); err == nil {
		return fmt.Errorf("manifest: state already initialized at %s", s.statePath)
	}
	return s.writeState(state{NextID: 1})
}

func (s *Store) path(id int) string {
	return filepath.Join(s.snapshotsDir, strconv.Itoa(id)+".json")
}
