// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

// Package scanner walks a tracked directory and produces the set of
// (relative path, size, content hash) tuples that make up a file-set
// for change detection and snapshotting.
//
// The scanner hashes every regular file on every call rather than
// using mtime/size shortcuts. That keeps it correct under clock skew
// at the cost of bounding snapshot latency on disk throughput, which
// is an explicit trade-off: there is no cache of previously seen
// hashes to invalidate, and so no class of staleness bugs to worry
// about.
package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// MetaDirName is the name of the engine's own metadata subtree, which
// is never scanned.
const MetaDirName = ".timemachine"

// Record is a single (path, size, hash) tuple.
type Record struct {
	Path string
	Size int64
	Hash string
}

// PathError reports that a file under root could not be read during a
// scan.
type PathError struct {
	Path  string
	Cause error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("scanner: %s: %v", e.Path, e.Cause)
}

func (e *PathError) Unwrap() error { return e.Cause }

// InvalidPathError reports a path that normalizes to something outside
// of root.
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("scanner: invalid path: %s", e.Path)
}

// Scan walks root and returns a record for every regular file found,
// excluding the `.timemachine` metadata subtree. Non-regular entries
// (symlinks, devices, FIFOs) are skipped; directories are recursed into
// only via the directory entry itself, never by following a symlink.
func Scan(root string) ([]Record, error) {
	return ScanWithLogger(root, zerolog.Nop())
}

// ScanWithLogger is Scan with per-file progress logged at debug level.
func ScanWithLogger(root string, log zerolog.Logger) ([]Record, error) {
	var records []Record

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &PathError{Path: root, Cause: err}
	}

	walkErr := filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return &PathError{Path: path, Cause: err}
		}

		if path == absRoot {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return &PathError{Path: path, Cause: err}
		}

		if hasMetaComponent(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return &PathError{Path: path, Cause: err}
		}
		if !info.Mode().IsRegular() {
			return nil // skip symlinks, devices, FIFOs, etc.
		}

		normalized, err := Normalize(rel)
		if err != nil {
			return err
		}

		hash, err := hashFile(path)
		if err != nil {
			return &PathError{Path: path, Cause: err}
		}

		log.Debug().Str("path", normalized).Int64("size", info.Size()).Msg("scanned file")

		records = append(records, Record{
			Path: normalized,
			Size: info.Size(),
			Hash: hash,
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return records, nil
}

// Normalize converts a host-separator relative path to the engine's
// canonical forward-slash form, rejecting paths that escape the root
// or contain "." / ".." components.
func Normalize(rel string) (string, error) {
	slash := filepath.ToSlash(rel)
	if slash == "" || slash == "." {
		return "", &InvalidPathError{Path: rel}
	}
	for _, part := range strings.Split(slash, "/") {
		if part == "" || part == "." || part == ".." {
			return "", &InvalidPathError{Path: rel}
		}
	}
	if strings.HasPrefix(slash, "/") {
		return "", &InvalidPathError{Path: rel}
	}
	return slash, nil
}

func hasMetaComponent(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == MetaDirName {
			return true
		}
	}
	return false
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
