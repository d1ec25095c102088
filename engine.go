// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

package timemachine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/masiedu4/timemachine/content"
	"github.com/masiedu4/timemachine/differ"
	"github.com/masiedu4/timemachine/internal/filelock"
	"github.com/masiedu4/timemachine/manifest"
	"github.com/masiedu4/timemachine/scanner"
)

// MetaDirName is the name of the metadata subtree created by Init
// inside the tracked root.
const MetaDirName = scanner.MetaDirName

// CleanupThresholdBytes is the auto-cleanup trigger used by Delete: if
// the total on-disk size of objects orphaned by a deletion exceeds
// this many bytes, they are reclaimed immediately even without the
// cleanup flag. Fixed at 100 MiB per the on-disk format spec.
const CleanupThresholdBytes = 100 * 1024 * 1024

// Engine orchestrates the operations of a tracked directory, owning
// the reference-counting invariant between the content store and the
// manifest store. One Engine corresponds to one tracked root; it holds
// no long-lived file handles between calls except for the duration of
// a single mutating operation's lock.
type Engine struct {
	root      string
	metaDir   string
	contents  *content.Store
	manifests *manifest.Store
	log       zerolog.Logger
}

// New returns an Engine for the given tracked root. It does not touch
// the filesystem; call Init (if not already tracked) before any other
// operation.
func New(root string, opts ...Option) *Engine {
	e := &Engine{
		root: root,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.metaDir = filepath.Join(root, MetaDirName)
	e.contents = content.Open(filepath.Join(e.metaDir, "contents")).WithLogger(e.log)
	e.manifests = manifest.Open(e.metaDir)
	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger to the engine.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// Root returns the tracked directory path the engine was constructed
// with.
func (e *Engine) Root() string { return e.root }

// Init creates the `.timemachine` metadata subtree.
func (e *Engine) Init() error {
	info, err := os.Stat(e.root)
	if err != nil || !info.IsDir() {
		return &NoSuchDirectoryError{Path: e.root}
	}

	if _, err := os.Stat(e.metaDir); err == nil {
		return &AlreadyInitializedError{Root: e.root}
	}

	if err := os.MkdirAll(filepath.Join(e.metaDir, "contents"), 0o755); err != nil {
		return &IoError{Path: e.metaDir, Cause: err}
	}
	if err := os.MkdirAll(filepath.Join(e.metaDir, "snapshots"), 0o755); err != nil {
		return &IoError{Path: e.metaDir, Cause: err}
	}
	if err := e.manifests.InitState(); err != nil {
		return &IoError{Path: e.metaDir, Cause: err}
	}

	e.log.Info().Str("root", e.root).Msg("tracked directory initialized")
	return nil
}

func (e *Engine) requireInitialized() error {
	if _, err := os.Stat(e.metaDir); err != nil {
		return &NotInitializedError{Root: e.root}
	}
	return nil
}

func (e *Engine) lock() (*filelock.Lock, error) {
	l, err := filelock.Acquire(filepath.Join(e.metaDir, "state.json"))
	if err != nil {
		return nil, &IoError{Path: filepath.Join(e.metaDir, "state.json"), Cause: err}
	}
	return l, nil
}

// scan runs the Scanner against the tracked root and returns the
// result as a path-keyed FileSet.
func (e *Engine) scan() (FileSet, error) {
	records, err := scanner.ScanWithLogger(e.root, e.log)
	if err != nil {
		var pe *scanner.PathError
		if asPathError(err, &pe) {
			return nil, &IoError{Path: pe.Path, Cause: pe.Cause}
		}
		var ipe *scanner.InvalidPathError
		if asInvalidPathError(err, &ipe) {
			return nil, &InvalidPathError{Path: ipe.Path}
		}
		return nil, &IoError{Path: e.root, Cause: err}
	}

	fs := make(FileSet, len(records))
	for _, r := range records {
		fs[r.Path] = FileRecord{Path: r.Path, Size: r.Size, Hash: r.Hash}
	}
	return fs, nil
}

func manifestFilesToDiffEntries(files map[string]manifest.FileEntry) map[string]differ.Entry {
	out := make(map[string]differ.Entry, len(files))
	for path, f := range files {
		out[path] = differ.Entry{Size: f.Size, Hash: f.Hash}
	}
	return out
}

func fileSetToDiffEntries(fs FileSet) map[string]differ.Entry {
	out := make(map[string]differ.Entry, len(fs))
	for path, r := range fs {
		out[path] = differ.Entry{Size: r.Size, Hash: r.Hash}
	}
	return out
}

func toChangeSet(cs differ.ChangeSet) ChangeSet {
	return ChangeSet{Added: cs.Added, Removed: cs.Removed, Modified: cs.Modified}
}

// latestManifestFiles returns the highest-id manifest's files, or an
// empty map if no snapshot exists.
func (e *Engine) latestManifestFiles() (map[string]manifest.FileEntry, error) {
	maxID, ok, err := e.manifests.MaxExistingID()
	if err != nil {
		return nil, &IoError{Path: e.metaDir, Cause: err}
	}
	if !ok {
		return map[string]manifest.FileEntry{}, nil
	}
	m, err := e.manifests.Read(maxID)
	if err != nil {
		return nil, &NotFoundError{Entity: "manifest", ID: fmt.Sprint(maxID)}
	}
	return m.Files, nil
}

// Status computes the change set between the latest snapshot (if any)
// and the live tree.
func (e *Engine) Status() (ChangeSet, error) {
	if err := e.requireInitialized(); err != nil {
		return ChangeSet{}, err
	}

	latest, err := e.latestManifestFiles()
	if err != nil {
		return ChangeSet{}, err
	}

	live, err := e.scan()
	if err != nil {
		return ChangeSet{}, err
	}

	cs := differ.Diff(manifestFilesToDiffEntries(latest), fileSetToDiffEntries(live))
	return toChangeSet(cs), nil
}

// Snapshot records a point-in-time snapshot of the tracked root: every
// distinct file body is stored in the content store (deduplicated by
// hash), then a manifest referencing them is built and durably
// written. The returned int is the new snapshot's id.
func (e *Engine) Snapshot() (int, error) {
	if err := e.requireInitialized(); err != nil {
		return 0, err
	}

	l, err := e.lock()
	if err != nil {
		return 0, err
	}
	defer l.Release()

	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() (int, error) {
	live, err := e.scan()
	if err != nil {
		return 0, err
	}

	files := make(map[string]manifest.FileEntry, len(live))
	seen := make(map[string]bool)
	for path, rec := range live {
		if !seen[rec.Hash] {
			if !e.contents.Exists(rec.Hash) {
				data, readErr := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(rec.Path)))
				if readErr != nil {
					return 0, &IoError{Path: rec.Path, Cause: readErr}
				}
				if _, putErr := e.contents.Put(data); putErr != nil {
					return 0, &IoError{Path: rec.Path, Cause: putErr}
				}
			}
			seen[rec.Hash] = true
		}
		files[path] = manifest.FileEntry{Size: rec.Size, Hash: rec.Hash}
	}

	id, err := e.manifests.NextID()
	if err != nil {
		return 0, &IoError{Path: e.metaDir, Cause: err}
	}

	var parentID *int
	if maxID, ok, err := e.manifests.MaxExistingID(); err == nil && ok && maxID != id {
		p := maxID
		parentID = &p
	}

	m := &manifest.Manifest{
		ID:        id,
		Timestamp: time.Now().UTC(),
		ParentID:  parentID,
		Files:     files,
	}
	if err := e.manifests.Write(m); err != nil {
		return 0, &IoError{Path: e.metaDir, Cause: err}
	}

	e.log.Info().Int("id", id).Int("files", len(files)).Msg("snapshot committed")
	return id, nil
}

// Diff loads the manifests for id1 and id2 and compares their file
// sets.
func (e *Engine) Diff(id1, id2 int) (ChangeSet, error) {
	if err := e.requireInitialized(); err != nil {
		return ChangeSet{}, err
	}

	m1, err := e.manifests.Read(id1)
	if err != nil {
		return ChangeSet{}, &NotFoundError{Entity: "manifest", ID: fmt.Sprint(id1)}
	}
	m2, err := e.manifests.Read(id2)
	if err != nil {
		return ChangeSet{}, &NotFoundError{Entity: "manifest", ID: fmt.Sprint(id2)}
	}

	cs := differ.Diff(manifestFilesToDiffEntries(m1.Files), manifestFilesToDiffEntries(m2.Files))
	return toChangeSet(cs), nil
}

// List returns a summary of every snapshot, ascending by id. When
// detailed is true, each entry's OnDiskSize is computed by summing the
// compressed size of every hash unique to that snapshot (not shared
// with any other remaining manifest). Objects referenced by more than
// one snapshot are not counted toward any snapshot, and no separate
// shared-size figure is reported.
func (e *Engine) List(detailed bool) ([]SnapshotInfo, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}

	ids, err := e.manifests.List()
	if err != nil {
		return nil, &IoError{Path: e.metaDir, Cause: err}
	}

	manifests := make([]*manifest.Manifest, 0, len(ids))
	for _, id := range ids {
		m, err := e.manifests.Read(id)
		if err != nil {
			return nil, &NotFoundError{Entity: "manifest", ID: fmt.Sprint(id)}
		}
		manifests = append(manifests, m)
	}

	var refCounts map[string]int
	if detailed {
		refCounts = computeRefCounts(manifests)
	}

	infos := make([]SnapshotInfo, 0, len(manifests))
	for _, m := range manifests {
		info := SnapshotInfo{
			ID:        m.ID,
			Timestamp: m.Timestamp,
			FileCount: len(m.Files),
		}
		for _, f := range m.Files {
			info.TotalLogicalSize += f.Size
		}

		if detailed {
			var total int64
			counted := make(map[string]bool, len(m.Files))
			for _, f := range m.Files {
				if refCounts[f.Hash] == 1 && !counted[f.Hash] {
					counted[f.Hash] = true
					size, err := e.contents.Size(f.Hash)
					if err == nil {
						total += size
					}
				}
			}
			info.OnDiskSize = total
			info.OnDiskSizeKnown = true
		}

		infos = append(infos, info)
	}

	return infos, nil
}

func computeRefCounts(manifests []*manifest.Manifest) map[string]int {
	counts := make(map[string]int)
	for _, m := range manifests {
		seen := make(map[string]bool, len(m.Files))
		for _, f := range m.Files {
			if !seen[f.Hash] {
				counts[f.Hash]++
				seen[f.Hash] = true
			}
		}
	}
	return counts
}

// Restore plans and (unless dryRun) applies the changes needed to make
// the live tree match the snapshot for id.
func (e *Engine) Restore(id int, dryRun, force bool) (RestorePlan, error) {
	if err := e.requireInitialized(); err != nil {
		return RestorePlan{}, err
	}

	l, err := e.lock()
	if err != nil {
		return RestorePlan{}, err
	}
	defer l.Release()

	status, err := e.Status()
	if err != nil {
		return RestorePlan{}, err
	}

	var forceSnapshotID int
	if !status.IsEmpty() {
		if !force {
			return RestorePlan{}, &UncommittedChangesError{Changes: status}
		}
		forceSnapshotID, err = e.snapshotLocked()
		if err != nil {
			return RestorePlan{}, err
		}
	}

	target, err := e.manifests.Read(id)
	if err != nil {
		return RestorePlan{}, &NotFoundError{Entity: "manifest", ID: fmt.Sprint(id)}
	}

	live, err := e.scan()
	if err != nil {
		return RestorePlan{}, err
	}

	cs := differ.Diff(fileSetToDiffEntries(live), manifestFilesToDiffEntries(target.Files))

	for _, path := range append(append([]string{}, cs.Added...), cs.Modified...) {
		hash := target.Files[path].Hash
		if !e.contents.Exists(hash) {
			return RestorePlan{}, &MissingContentError{Hash: hash}
		}
	}

	plan := RestorePlan{
		SnapshotID:      id,
		Create:          cs.Added,
		Overwrite:       cs.Modified,
		Delete:          cs.Removed,
		DryRun:          dryRun,
		ForceSnapshotID: forceSnapshotID,
	}

	if dryRun {
		return plan, nil
	}

	for _, path := range plan.Delete {
		full := filepath.Join(e.root, filepath.FromSlash(path))
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return RestorePlan{}, &IoError{Path: path, Cause: err}
		}
	}

	for _, path := range append(append([]string{}, plan.Create...), plan.Overwrite...) {
		hash := target.Files[path].Hash
		data, err := e.contents.Get(hash)
		if err != nil {
			if errors.Is(err, content.ErrCorrupt) {
				return RestorePlan{}, &CorruptError{Entity: "content object " + hash, Detail: err.Error()}
			}
			return RestorePlan{}, &IoError{Path: path, Cause: err}
		}

		full := filepath.Join(e.root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return RestorePlan{}, &IoError{Path: path, Cause: err}
		}
		if err := writeFileAtomic(full, data); err != nil {
			return RestorePlan{}, &IoError{Path: path, Cause: err}
		}
	}

	for _, path := range plan.Delete {
		removeEmptyParents(e.root, filepath.Dir(filepath.FromSlash(path)))
	}

	e.log.Info().Int("id", id).Int("changes", plan.TotalChanges()).Bool("dry_run", dryRun).Msg("restore applied")
	return plan, nil
}

// Delete removes the manifest for id and, if cleanup is requested or
// the orphaned content exceeds CleanupThresholdBytes (or no manifests
// remain), reclaims the content objects that were only referenced by
// the deleted manifest.
func (e *Engine) Delete(id int, cleanup bool) (DeleteResult, error) {
	if err := e.requireInitialized(); err != nil {
		return DeleteResult{}, err
	}

	l, err := e.lock()
	if err != nil {
		return DeleteResult{}, err
	}
	defer l.Release()

	target, err := e.manifests.Read(id)
	if err != nil {
		return DeleteResult{}, &NotFoundError{Entity: "manifest", ID: fmt.Sprint(id)}
	}

	if err := e.manifests.Delete(id); err != nil {
		return DeleteResult{}, &IoError{Path: e.metaDir, Cause: err}
	}

	remainingIDs, err := e.manifests.List()
	if err != nil {
		return DeleteResult{}, &IoError{Path: e.metaDir, Cause: err}
	}

	referenced := make(map[string]bool)
	for _, rid := range remainingIDs {
		m, err := e.manifests.Read(rid)
		if err != nil {
			continue
		}
		for _, f := range m.Files {
			referenced[f.Hash] = true
		}
	}

	candidates := make(map[string]bool)
	for _, f := range target.Files {
		if !referenced[f.Hash] {
			candidates[f.Hash] = true
		}
	}

	var candidateBytes int64
	for hash := range candidates {
		if size, err := e.contents.Size(hash); err == nil {
			candidateBytes += size
		}
	}

	shouldClean := cleanup || len(remainingIDs) == 0 || candidateBytes > CleanupThresholdBytes
	result := DeleteResult{SnapshotID: id}
	if !shouldClean {
		return result, nil
	}

	var freed int64
	var freedCount int
	for hash := range candidates {
		size, sizeErr := e.contents.Size(hash)
		if err := e.contents.Delete(hash); err != nil {
			e.log.Warn().Str("hash", hash).Err(err).Msg("cleanup: failed to delete content object")
			continue
		}
		if sizeErr == nil {
			freed += size
		}
		freedCount++
	}

	result.ObjectsFreed = freedCount
	result.BytesFreed = freed
	result.CleanupRun = true

	e.log.Info().Int("id", id).Int("objects_freed", freedCount).Int64("bytes_freed", freed).Msg("snapshot deleted")
	return result, nil
}

// Cleanup recomputes the set of hashes referenced by any remaining
// manifest and removes every content object not in that set. It is
// safe to call at any time and is idempotent.
func (e *Engine) Cleanup() (CleanupResult, error) {
	if err := e.requireInitialized(); err != nil {
		return CleanupResult{}, err
	}

	l, err := e.lock()
	if err != nil {
		return CleanupResult{}, err
	}
	defer l.Release()

	ids, err := e.manifests.List()
	if err != nil {
		return CleanupResult{}, &IoError{Path: e.metaDir, Cause: err}
	}

	referenced := make(map[string]bool)
	for _, id := range ids {
		m, err := e.manifests.Read(id)
		if err != nil {
			continue
		}
		for _, f := range m.Files {
			referenced[f.Hash] = true
		}
	}

	all, err := e.contents.Enumerate()
	if err != nil {
		return CleanupResult{}, &IoError{Path: e.metaDir, Cause: err}
	}

	var freed int64
	var freedCount int
	for _, hash := range all {
		if referenced[hash] {
			continue
		}
		size, sizeErr := e.contents.Size(hash)
		if err := e.contents.Delete(hash); err != nil {
			e.log.Warn().Str("hash", hash).Err(err).Msg("cleanup: failed to delete content object")
			continue
		}
		if sizeErr == nil {
			freed += size
		}
		freedCount++
	}

	e.log.Info().Int("objects_freed", freedCount).Int64("bytes_freed", freed).Msg("cleanup complete")
	return CleanupResult{ObjectsFreed: freedCount, BytesFreed: freed}, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func removeEmptyParents(root, dir string) {
	for dir != "." && dir != "/" && dir != "" {
		full := filepath.Join(root, dir)
		if full == root {
			return
		}
		if err := os.Remove(full); err != nil {
			return // not empty, or already gone, or permission error: stop
		}
		dir = filepath.Dir(dir)
	}
}

// asPathError and asInvalidPathError avoid importing errors.As at every
// call site for the scanner's two sentinel error types.
func asPathError(err error, target **scanner.PathError) bool {
	pe, ok := err.(*scanner.PathError)
	if ok {
		*target = pe
	}
	return ok
}

func asInvalidPathError(err error, target **scanner.InvalidPathError) bool {
	ipe, ok := err.(*scanner.InvalidPathError)
	if ok {
		*target = ipe
	}
	return ok
}
