// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

// Package content implements the content-addressed object store: file
// bodies are persisted keyed by the SHA-256 of their uncompressed
// bytes, compressed on write with zstd and decompressed on read.
//
// Objects are immutable once written and are sharded two levels deep
// by hash prefix (contents/ab/abcdef...) to keep any one directory
// from holding tens of thousands of entries. Readers must accept the
// unsharded flat layout too, since the format does not mandate
// sharding — see Store.resolve.
package content

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

// HashSize is the length in bytes of a content hash (SHA-256).
const HashSize = sha256.Size

// ErrNotFound is returned by Get when no object exists for a hash.
var ErrNotFound = errors.New("content: object not found")

// ErrCorrupt is returned by Get when the stored bytes fail to
// decompress, or decompress to content whose hash does not match the
// key under which they were stored.
var ErrCorrupt = errors.New("content: object is corrupt")

// Store is a directory-backed, hash-addressed, zstd-compressed object
// store.
type Store struct {
	dir string
	log zerolog.Logger
}

// Open returns a Store rooted at dir. dir must already exist; callers
// create it as part of Init.
func Open(dir string) *Store {
	return &Store{
		dir: dir,
		log: zerolog.Nop(),
	}
}

// WithLogger returns a copy of s that logs through log.
func (s *Store) WithLogger(log zerolog.Logger) *Store {
	s2 := *s
	s2.log = log.With().Str("component", "content").Logger()
	return &s2
}

// Put computes the SHA-256 of data, writes it compressed under that key
// if not already present, and returns the hex hash. Put is a no-op
// (besides hashing) if an object with that key already exists.
func (s *Store) Put(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	path := s.locate(hash)
	if _, err := s.resolve(hash); err == nil {
		s.log.Debug().Str("hash", hash).Msg("content already present")
		return hash, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", &pathError{path: filepath.Dir(path), cause: err}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return "", fmt.Errorf("content: new zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(data, nil)
	_ = enc.Close()

	tmpPath := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.%s.tmp", hash, uuid.NewString()))
	if err := os.WriteFile(tmpPath, compressed, 0o644); err != nil {
		return "", &pathError{path: tmpPath, cause: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", &pathError{path: path, cause: err}
	}

	s.log.Debug().Str("hash", hash).Int("bytes", len(data)).Int("compressed", len(compressed)).Msg("content stored")
	return hash, nil
}

// Get reads and decompresses the object for hash.
func (s *Store) Get(hash string) ([]byte, error) {
	path, err := s.resolve(hash)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, &pathError{path: path, cause: err}
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("content: new zstd decoder: %w", err)
	}
	defer dec.Close()

	data, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != hash {
		return nil, fmt.Errorf("%w: hash mismatch for %s", ErrCorrupt, hash)
	}

	return data, nil
}

// PutReader is like Put but takes the body from r, returning the hash
// and the number of bytes read. The whole body is buffered in memory
// while it is hashed, then compressed from that buffer.
func (s *Store) PutReader(r io.Reader) (string, int64, error) {
	buf := &bytes.Buffer{}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(buf, h), r)
	if err != nil {
		return "", 0, err
	}
	hash := hex.EncodeToString(h.Sum(nil))

	path := s.locate(hash)
	if _, err := s.resolve(hash); err == nil {
		return hash, n, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", 0, &pathError{path: filepath.Dir(path), cause: err}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return "", 0, fmt.Errorf("content: new zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(buf.Bytes(), nil)
	_ = enc.Close()

	tmpPath := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.%s.tmp", hash, uuid.NewString()))
	if err := os.WriteFile(tmpPath, compressed, 0o644); err != nil {
		return "", 0, &pathError{path: tmpPath, cause: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", 0, &pathError{path: path, cause: err}
	}

	return hash, n, nil
}

// Exists reports whether an object for hash is present.
func (s *Store) Exists(hash string) bool {
	_, err := s.resolve(hash)
	return err == nil
}

// Size returns the on-disk (compressed) size of the object for hash.
func (s *Store) Size(hash string) (int64, error) {
	path, err := s.resolve(hash)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, &pathError{path: path, cause: err}
	}
	return info.Size(), nil
}

// Delete removes the object for hash. A missing object is not an
// error.
func (s *Store) Delete(hash string) error {
	path, err := s.resolve(hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &pathError{path: path, cause: err}
	}
	s.log.Debug().Str("hash", hash).Msg("content deleted")
	return nil
}

// Enumerate returns the hashes of every object currently in the store.
func (s *Store) Enumerate() ([]string, error) {
	var hashes []string
	err := filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if len(name) != 64 {
			return nil // skip temp files and anything not hash-named
		}
		if _, decodeErr := hex.DecodeString(name); decodeErr != nil {
			return nil
		}
		hashes = append(hashes, name)
		return nil
	})
	if err != nil {
		return nil, &pathError{path: s.dir, cause: err}
	}
	return hashes, nil
}

// locate returns the sharded path new objects should be written to:
// contents/<hash[:2]>/<hash>.
func (s *Store) locate(hash string) string {
	if len(hash) < 2 {
		return filepath.Join(s.dir, hash)
	}
	return filepath.Join(s.dir, hash[:2], hash)
}

// resolve finds the on-disk path for an existing object, accepting
// either the sharded layout or a flat contents/<hash> layout so the
// store can read objects written by either scheme.
func (s *Store) resolve(hash string) (string, error) {
	sharded := s.locate(hash)
	if _, err := os.Stat(sharded); err == nil {
		return sharded, nil
	}

	flat := filepath.Join(s.dir, hash)
	if _, err := os.Stat(flat); err == nil {
		return flat, nil
	}

	return "", ErrNotFound
}

type pathError struct {
	path  string
	cause error
}

func (e *pathError) Error() string {
	return fmt.Sprintf("content: %s: %v", e.path, e.cause)
}

func (e *pathError) Unwrap() error { return e.cause }

// PathError exposes the path and cause of an I/O failure for error
// translation at the engine layer.
func PathError(err error) (path string, cause error, ok bool) {
	var pe *pathError
	if errors.As(err, &pe) {
		return pe.path, pe.cause, true
	}
	return "", nil, false
}
